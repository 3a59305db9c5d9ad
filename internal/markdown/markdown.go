// Package markdown wraps the Goldmark converter used for every page body.
// A single converter instance is shared; Goldmark converters are safe for
// concurrent use, which the render pool relies on.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Converter renders Markdown bodies (front matter already removed) to HTML.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter builds the site-wide converter: GitHub Flavored Markdown with
// automatic heading IDs so intra-page anchors resolve.
func NewConverter() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
	}
}

// Convert renders body to HTML.
func (c *Converter) Convert(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
