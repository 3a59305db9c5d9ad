package site

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// stageAggregate builds the list pages (home, sections, taxonomies) and their
// configured feed artifacts. It runs strictly after every per-document render
// has completed.
func stageAggregate(_ context.Context, bs *buildState) error {
	site := currentSite(bs)

	if err := aggregateHome(bs, site); err != nil {
		return err
	}
	if err := aggregateSections(bs, site); err != nil {
		return err
	}
	return aggregateTaxonomies(bs, site)
}

func aggregateHome(bs *buildState, site *Site) error {
	page := bs.homeDoc
	if page == nil {
		page = &Page{Kind: KindHome, Title: site.Title, Permalink: "/"}
	}
	if page.Title == "" {
		page.Title = site.Title
	}
	page.Pages = bs.pages

	return emitListArtifacts(bs, site, page, config.KindHome, "home")
}

func aggregateSections(bs *buildState, site *Site) error {
	members := map[string][]*Page{}
	for _, p := range bs.pages {
		if p.Section != "" {
			members[p.Section] = append(members[p.Section], p)
		}
	}
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	for name := range bs.sectionDocs {
		if _, ok := members[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		page := bs.sectionDocs[name]
		if page == nil {
			page = &Page{Kind: KindSection, Title: fallbackTitle(name), Section: name, Permalink: "/" + name + "/"}
		}
		if page.Title == "" {
			page.Title = fallbackTitle(name)
		}
		pages := members[name]
		sort.Slice(pages, func(i, j int) bool { return byWeightThenDate(pages[i], pages[j]) })
		page.Pages = pages

		if err := emitListArtifacts(bs, site, page, config.KindSection, "list"); err != nil {
			return err
		}
	}
	return nil
}

func aggregateTaxonomies(bs *buildState, site *Site) error {
	byTag := map[string][]*Page{}
	labels := map[string]string{}
	for _, p := range bs.pages {
		for _, tag := range p.Tags {
			slug := slugify(tag)
			if slug == "" {
				continue
			}
			byTag[slug] = append(byTag[slug], p)
			if _, ok := labels[slug]; !ok {
				labels[slug] = tag
			}
		}
	}
	if len(byTag) == 0 {
		return nil
	}

	slugs := make([]string, 0, len(byTag))
	for slug := range byTag {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	terms := &Page{Kind: KindTaxonomy, Title: "Tags", Permalink: "/tags/"}
	for _, slug := range slugs {
		pages := byTag[slug]
		sort.Slice(pages, func(i, j int) bool { return byDateDesc(pages[i], pages[j]) })

		term := &Page{
			Kind:      KindTaxonomy,
			Title:     labels[slug],
			Permalink: "/tags/" + slug + "/",
			Pages:     pages,
		}
		terms.Pages = append(terms.Pages, term)

		if err := emitListArtifacts(bs, site, term, config.KindTaxonomy, "list"); err != nil {
			return err
		}
	}

	if bs.cfg.Outputs.Has(config.KindTaxonomy, config.FormatHTML) {
		html, err := executeTemplate(bs.tmpl, "terms", site, terms)
		if err != nil {
			return fmt.Errorf("%w: taxonomy terms: %w", ErrRender, err)
		}
		bs.addArtifact(Artifact{Path: outputPath(terms.Permalink), Format: config.FormatHTML, Bytes: html})
	}
	return nil
}

// emitListArtifacts renders a list page into every format its kind selects.
func emitListArtifacts(bs *buildState, site *Site, page *Page, kind, templateName string) error {
	base := strings.TrimPrefix(page.Permalink, "/")

	for _, format := range bs.cfg.Outputs.For(kind) {
		switch strings.ToLower(format) {
		case strings.ToLower(config.FormatHTML):
			html, err := executeTemplate(bs.tmpl, templateName, site, page)
			if err != nil {
				return fmt.Errorf("%w: %s %s: %w", ErrRender, kind, page.Permalink, err)
			}
			bs.addArtifact(Artifact{Path: outputPath(page.Permalink), Format: config.FormatHTML, Bytes: html})
		case strings.ToLower(config.FormatRSS):
			feed, err := renderRSS(site, page)
			if err != nil {
				return fmt.Errorf("%w: %s feed %s: %w", ErrRender, kind, page.Permalink, err)
			}
			bs.addArtifact(Artifact{Path: path.Join(base, "index.xml"), Format: config.FormatRSS, Bytes: feed})
		case strings.ToLower(config.FormatJSON):
			idx, err := renderJSONIndex(site, page)
			if err != nil {
				return fmt.Errorf("%w: %s index %s: %w", ErrRender, kind, page.Permalink, err)
			}
			bs.addArtifact(Artifact{Path: path.Join(base, "index.json"), Format: config.FormatJSON, Bytes: idx})
		case strings.ToLower(config.FormatMarkdown):
			// Markdown passthrough only applies to content-backed pages.
			if page.Source != nil {
				bs.addArtifact(Artifact{Path: path.Join(base, "index.md"), Format: config.FormatMarkdown, Bytes: page.Source.Content})
			}
		}
	}
	return nil
}
