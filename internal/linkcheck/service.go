package linkcheck

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// Warning describes one unresolved internal link. Warnings are collected and
// reported after a successful build; they never fail it.
type Warning struct {
	Target string // the link as written
	Source string // permalink of the referencing page
	Origin string // markdown file the link was written in, when attributable
}

func (w Warning) String() string {
	if w.Origin != "" {
		return fmt.Sprintf("broken internal link %q referenced from %s (written in %s)", w.Target, w.Source, w.Origin)
	}
	return fmt.Sprintf("broken internal link %q referenced from %s", w.Target, w.Source)
}

// Publisher forwards broken-link events to an external system.
type Publisher interface {
	PublishBrokenLink(ctx context.Context, w Warning) error
	Close()
}

// Checker verifies that internal links in rendered HTML artifacts resolve to
// an artifact in the same build. It implements site.Verifier.
type Checker struct {
	baseURL   string
	publisher Publisher
	origins   map[string]string // link destination -> markdown file it was written in
}

// NewChecker builds a Checker for the given site base URL.
func NewChecker(cfg *config.Config) *Checker {
	return &Checker{baseURL: cfg.BaseURL}
}

// WithPublisher attaches an event publisher (NATS in production).
func (c *Checker) WithPublisher(p Publisher) *Checker {
	c.publisher = p
	return c
}

// SetSources indexes link destinations back to the markdown files they
// were written in, so warnings can cite the document to fix. First
// writer wins; documents arrive in deterministic path order.
func (c *Checker) SetSources(docs []content.Document) {
	c.origins = make(map[string]string)
	for _, doc := range docs {
		if doc.IsAsset {
			continue
		}
		_, body, _, err := frontmatter.Split(doc.Content)
		if err != nil {
			continue
		}
		links, err := markdown.ExtractLinks(body)
		if err != nil {
			slog.Warn("Failed to parse markdown for link origins", logfields.Path(doc.RelativePath), logfields.Error(err))
			continue
		}
		for _, l := range links {
			if _, seen := c.origins[l.Destination]; !seen {
				c.origins[l.Destination] = doc.RelativePath
			}
		}
	}
}

// Verify checks every internal link in every HTML artifact against the set
// of produced artifact paths.
func (c *Checker) Verify(ctx context.Context, artifacts []site.Artifact) []string {
	available := map[string]bool{}
	for _, a := range artifacts {
		available["/"+a.Path] = true
	}

	var warnings []Warning
	for _, a := range artifacts {
		if a.Format != config.FormatHTML {
			continue
		}
		select {
		case <-ctx.Done():
			return warningStrings(warnings)
		default:
		}

		pagePerma := "/" + strings.TrimSuffix(a.Path, "index.html")
		links, err := ExtractLinks(bytes.NewReader(a.Bytes), c.baseURL)
		if err != nil {
			slog.Warn("Failed to parse rendered HTML", logfields.Path(a.Path), logfields.Error(err))
			continue
		}

		for _, l := range links {
			if !l.IsInternal {
				continue
			}
			if target, ok := c.resolve(l.URL, pagePerma); ok && !targetExists(target, available) {
				warnings = append(warnings, Warning{Target: l.URL, Source: pagePerma, Origin: c.origins[l.URL]})
			}
		}
	}

	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].Source != warnings[j].Source {
			return warnings[i].Source < warnings[j].Source
		}
		return warnings[i].Target < warnings[j].Target
	})

	if c.publisher != nil {
		for _, w := range warnings {
			if err := c.publisher.PublishBrokenLink(ctx, w); err != nil {
				slog.Warn("Failed to publish broken link event", logfields.Error(err))
			}
		}
	}

	return warningStrings(warnings)
}

// resolve normalizes a link target to an absolute site path. The second
// return is false for targets that cannot be checked (query-only, empty).
func (c *Checker) resolve(raw, pagePerma string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	p := u.Path
	if p == "" {
		return "", false
	}
	if !strings.HasPrefix(p, "/") {
		p = path.Join(pagePerma, p)
	}
	return path.Clean(p), true
}

func targetExists(target string, available map[string]bool) bool {
	if available[target] {
		return true
	}
	// Directory-style permalinks resolve to their index document.
	return available[path.Join(target, "index.html")]
}

func warningStrings(warnings []Warning) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out
}
