package site

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// stageTransform parses front matter, filters drafts and assigns permalinks.
// Any malformed front matter is a fatal ConfigError naming the document.
func stageTransform(_ context.Context, bs *buildState) error {
	for i := range bs.docs {
		doc := &bs.docs[i]

		page, err := transformDocument(doc, bs)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTransform, err)
		}

		if page.Draft && !bs.cfg.BuildDrafts {
			bs.report.DraftsSkipped++
			continue
		}

		switch {
		case isIndexDoc(doc) && doc.Section == "":
			page.Kind = KindHome
			page.Permalink = "/"
			bs.homeDoc = page
		case isIndexDoc(doc):
			page.Kind = KindSection
			page.Permalink = "/" + doc.Section + "/"
			bs.sectionDocs[doc.Section] = page
		default:
			bs.pages = append(bs.pages, page)
		}
	}

	resolveCollisions(bs.pages)
	sort.Slice(bs.pages, func(i, j int) bool { return byDateDesc(bs.pages[i], bs.pages[j]) })
	return nil
}

func transformDocument(doc *content.Document, bs *buildState) (*Page, error) {
	fm, body, _, err := frontmatter.Split(doc.Content)
	if err != nil {
		return nil, &config.ConfigError{
			File:   doc.RelativePath,
			Field:  "front matter",
			Reason: err.Error(),
			Err:    err,
		}
	}

	fields, err := frontmatter.ParseYAML(fm)
	if err != nil {
		return nil, &config.ConfigError{
			File:   doc.RelativePath,
			Field:  "front matter",
			Reason: fmt.Sprintf("invalid YAML: %v", err),
			Err:    err,
		}
	}

	meta, err := frontmatter.Extract(fields)
	if err != nil {
		return nil, &config.ConfigError{
			File:   doc.RelativePath,
			Field:  "date",
			Reason: err.Error(),
			Err:    err,
		}
	}

	title := meta.Title
	if title == "" {
		title = fallbackTitle(doc.Name)
	}
	slug := meta.Slug
	if slug == "" {
		slug = slugify(title)
	}
	if slug == "" {
		slug = slugify(doc.Name)
	}

	lastmod := meta.Date
	if bs.lastmod != nil {
		if t := bs.lastmod(doc.Path); !t.IsZero() {
			lastmod = t
		}
	}

	return &Page{
		Kind:        KindPage,
		Title:       title,
		Date:        meta.Date,
		Lastmod:     lastmod,
		Draft:       meta.Draft,
		Weight:      meta.Weight,
		Tags:        meta.Tags,
		Summary:     meta.Summary,
		Section:     doc.Section,
		Slug:        slug,
		Permalink:   permalink(doc.Section, slug, false),
		Body:        body,
		FrontMatter: fields,
		Source:      doc,
	}, nil
}

// isIndexDoc reports whether the document supplies section (or home) index
// content rather than a standalone page. README files serve as indexes the
// same way _index does.
func isIndexDoc(doc *content.Document) bool {
	if doc.Name == "_index" {
		return true
	}
	if strings.EqualFold(doc.Name, "README") {
		return true
	}
	return doc.Section == "" && doc.Name == "index"
}
