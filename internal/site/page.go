package site

import (
	"html/template"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// Kind of a page, mirroring the outputs configuration keys.
const (
	KindHome     = "home"
	KindPage     = "page"
	KindSection  = "section"
	KindTaxonomy = "taxonomy"
)

// Page is a renderable unit derived from a Document plus its front matter.
// List pages (home, section, taxonomy) have no source document.
type Page struct {
	Kind    string
	Title   string
	Date    time.Time
	Lastmod time.Time
	Draft   bool
	Weight  int
	Tags    []string
	Summary string
	Section string
	Slug    string

	// Permalink is the site-relative URL with leading and trailing slash,
	// e.g. "/posts/hello/".
	Permalink string

	// Body is the raw Markdown body with front matter stripped.
	Body []byte

	// Content is the rendered HTML body, populated by the render stage.
	Content template.HTML

	// FrontMatter holds the full parsed field map for template access.
	FrontMatter map[string]any

	// Source is nil for aggregated list pages.
	Source *content.Document

	// Pages lists the member pages of a list page, newest first.
	Pages []*Page
}

// IsList reports whether the page aggregates other pages.
func (p *Page) IsList() bool { return p.Kind != KindPage }

// byDateDesc orders pages newest first; undated pages sink to the end and
// ties break on permalink so ordering is reproducible.
func byDateDesc(a, b *Page) bool {
	switch {
	case a.Date.IsZero() && b.Date.IsZero():
		return a.Permalink < b.Permalink
	case a.Date.IsZero():
		return false
	case b.Date.IsZero():
		return true
	case !a.Date.Equal(b.Date):
		return a.Date.After(b.Date)
	default:
		return a.Permalink < b.Permalink
	}
}

// byWeightThenDate orders section members: explicit weight first (ascending),
// then newest first.
func byWeightThenDate(a, b *Page) bool {
	if a.Weight != b.Weight {
		if a.Weight == 0 {
			return false
		}
		if b.Weight == 0 {
			return true
		}
		return a.Weight < b.Weight
	}
	return byDateDesc(a, b)
}
