package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output     string `short:"o" help:"Output directory for the generated site (overrides config)"`
	Drafts     bool   `short:"D" name:"drafts" help:"Include documents marked as drafts"`
	CheckLinks bool   `name:"check-links" help:"Verify internal links after rendering"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Drafts {
		cfg.BuildDrafts = true
	}
	outputDir := ResolveOutputDir(b.Output, cfg)

	builder, cleanup, err := NewSiteBuilder(cfg, outputDir, b.CheckLinks)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := builder.Build(ctx)
	if report != nil {
		recordBuild(ctx, cfg, report)
	}
	if err != nil {
		return err
	}

	printReport(report, outputDir)
	return nil
}

func recordBuild(ctx context.Context, cfg *config.Config, report *site.Report) {
	path := historyPath(cfg)
	if path == "" {
		return
	}
	store, err := history.Open(path)
	if err != nil {
		slog.Warn("open build history", logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()
	if err := store.Append(ctx, report); err != nil {
		slog.Warn("record build history", logfields.Error(err))
	}
}

func printReport(report *site.Report, outputDir string) {
	artifacts := 0
	for _, n := range report.Artifacts {
		artifacts += n
	}
	fmt.Printf("Built %d pages (%d artifacts) in %s -> %s\n",
		report.PagesRendered, artifacts, report.Duration().Round(roundTo), outputDir)
	if report.DraftsSkipped > 0 {
		fmt.Printf("Skipped %d drafts (use --drafts to include them)\n", report.DraftsSkipped)
	}
	for _, w := range report.Warnings {
		fmt.Printf("WARNING: %s\n", w)
	}
}
