package site

import (
	"context"
	"html/template"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// LastmodFunc resolves the last-modified time for a source file. A zero
// return means unknown and leaves the front matter date in place.
type LastmodFunc func(absPath string) time.Time

// Builder turns a content tree plus configuration into output artifacts.
type Builder struct {
	cfg       *config.Config
	outputDir string
	recorder  metrics.Recorder
	lastmod   LastmodFunc
	verifier  Verifier
}

// Verifier inspects rendered artifacts after the write stage and returns
// human-readable warnings. Implementations must treat findings as non-fatal.
type Verifier interface {
	Verify(ctx context.Context, artifacts []Artifact) []string
}

// SourceAware verifiers additionally receive the discovered markdown
// documents before Verify runs, so findings can name the source file a
// link was written in, not just the rendered page.
type SourceAware interface {
	SetSources(docs []content.Document)
}

// NewBuilder creates a Builder writing to outputDir.
func NewBuilder(cfg *config.Config, outputDir string) *Builder {
	return &Builder{cfg: cfg, outputDir: outputDir, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder (NoopRecorder by default).
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithLastmod injects a last-modified resolver (typically git-backed).
func (b *Builder) WithLastmod(fn LastmodFunc) *Builder {
	b.lastmod = fn
	return b
}

// WithVerifier injects a post-build artifact verifier.
func (b *Builder) WithVerifier(v Verifier) *Builder {
	b.verifier = v
	return b
}

// buildState carries everything the stages produce and consume.
type buildState struct {
	cfg       *config.Config
	outputDir string
	report    *Report
	recorder  metrics.Recorder
	lastmod   LastmodFunc
	verifier  Verifier
	conv      *markdown.Converter
	tmpl      *template.Template

	docs   []content.Document // markdown sources
	assets []content.Document // copied verbatim

	pages       []*Page          // regular pages, date desc after transform
	homeDoc     *Page            // content-backed home page, may be nil
	sectionDocs map[string]*Page // section -> index document page
	artifacts   []Artifact
}

// Build runs the pipeline and returns the report. The returned error is the
// first fatal failure; warnings are carried in the report either way.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := NewReport()
	slog.Info("Starting site build",
		logfields.BuildID(report.BuildID),
		logfields.Path(b.cfg.Content.Directory))

	bs := &buildState{
		cfg:         b.cfg,
		outputDir:   b.outputDir,
		report:      report,
		recorder:    b.recorder,
		lastmod:     b.lastmod,
		verifier:    b.verifier,
		conv:        markdown.NewConverter(),
		sectionDocs: make(map[string]*Page),
	}

	stages := []StageDef{
		{StagePrepare, stagePrepare},
		{StageDiscover, stageDiscover},
		{StageTransform, stageTransform},
		{StageRender, stageRender},
		{StageAggregate, stageAggregate},
		{StageWrite, stageWrite},
		{StageVerify, stageVerify},
	}

	err := runStages(ctx, bs, stages)
	report.Finish(err)
	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(string(report.Outcome))

	if err != nil {
		return report, err
	}

	slog.Info("Site build complete",
		logfields.BuildID(report.BuildID),
		logfields.Count(report.PagesRendered),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	for _, w := range report.Warnings {
		slog.Warn("Build warning", slog.String("warning", w))
	}
	return report, nil
}
