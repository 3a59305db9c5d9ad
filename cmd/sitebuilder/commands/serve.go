package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/server"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port   int    `short:"p" help:"Port to listen on (overrides config)"`
	Output string `short:"o" help:"Output directory for the generated site (overrides config)"`
	Drafts bool   `short:"D" name:"drafts" help:"Include documents marked as drafts"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if s.Drafts {
		cfg.BuildDrafts = true
	}
	if s.Port != 0 {
		cfg.Serve.Port = s.Port
	}
	outputDir := ResolveOutputDir(s.Output, cfg)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		promRecorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		recorder = promRecorder
		metricsHandler = promRecorder.Handler()
	}

	builder, cleanup, err := NewSiteBuilder(cfg, outputDir, false)
	if err != nil {
		return err
	}
	defer cleanup()
	builder.WithRecorder(recorder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buildFn := func(ctx context.Context) (*site.Report, error) {
		return builder.Build(ctx)
	}

	// Initial build so the server has something to serve.
	report, err := buildFn(ctx)
	if err != nil {
		return fmt.Errorf("initial build: %w", err)
	}
	slog.Info("initial build complete", logfields.Count(report.PagesRendered))

	opts := []server.Option{}
	if metricsHandler != nil {
		opts = append(opts, server.WithMetricsHandler(metricsHandler))
	}
	if path := historyPath(cfg); path != "" {
		store, openErr := history.Open(path)
		if openErr != nil {
			slog.Warn("open build history", logfields.Error(openErr))
		} else {
			defer func() { _ = store.Close() }()
			if appendErr := store.Append(ctx, report); appendErr != nil {
				slog.Warn("record build history", logfields.Error(appendErr))
			}
			opts = append(opts, server.WithHistory(store))
		}
	}

	return server.New(cfg, outputDir, buildFn, opts...).Run(ctx)
}
