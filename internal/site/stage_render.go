package site

import (
	"context"
	"fmt"
	"html/template"
	"runtime"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// stageRender converts Markdown bodies to HTML across a bounded worker pool,
// then assembles the per-document artifacts in deterministic order.
// Conversion is stateless per page, so pool scheduling cannot affect output.
func stageRender(ctx context.Context, bs *buildState) error {
	targets := make([]*Page, 0, len(bs.pages)+len(bs.sectionDocs)+1)
	targets = append(targets, bs.pages...)
	if bs.homeDoc != nil {
		targets = append(targets, bs.homeDoc)
	}
	for _, p := range bs.sectionDocs {
		targets = append(targets, p)
	}

	if err := convertAll(ctx, bs, targets); err != nil {
		return err
	}

	site := currentSite(bs)

	for _, p := range bs.pages {
		html, err := executeTemplate(bs.tmpl, "single", site, p)
		if err != nil {
			return fmt.Errorf("%w: page %s: %w", ErrRender, p.Permalink, err)
		}
		bs.addArtifact(Artifact{Path: outputPath(p.Permalink), Format: config.FormatHTML, Bytes: html})

		if bs.cfg.Outputs.Has(config.KindPage, config.FormatMarkdown) {
			bs.addArtifact(Artifact{
				Path:   outputPath(p.Permalink)[:len(outputPath(p.Permalink))-len("index.html")] + "index.md",
				Format: config.FormatMarkdown,
				Bytes:  p.Source.Content,
			})
		}
		bs.report.PagesRendered++
	}
	bs.recorder.AddPagesRendered(len(bs.pages))
	return nil
}

// convertAll runs Markdown conversion for every target page concurrently.
func convertAll(ctx context.Context, bs *buildState, targets []*Page) error {
	if len(targets) == 0 {
		return nil
	}

	workers := runtime.NumCPU()
	if workers > len(targets) {
		workers = len(targets)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	jobs := make(chan *Page)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				html, err := bs.conv.Convert(p.Body)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("%w: %s: %w", ErrRender, p.Permalink, err)
					}
					mu.Unlock()
					continue
				}
				p.Content = template.HTML(html)
			}
		}()
	}

	for _, p := range targets {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()
	return firstErr
}

func (bs *buildState) addArtifact(a Artifact) {
	bs.artifacts = append(bs.artifacts, a)
	bs.report.Artifacts[a.Format]++
	bs.recorder.AddArtifactsWritten(a.Format, 1)
}

// currentSite builds the template view over the transformed pages.
func currentSite(bs *buildState) *Site {
	s := newSite(bs.cfg)
	s.Pages = bs.pages
	return s
}
