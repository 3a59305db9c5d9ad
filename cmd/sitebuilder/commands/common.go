package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/gitinfo"
	"git.home.luguber.info/inful/sitebuilder/internal/linkcheck"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// roundTo trims build durations for human-facing output.
const roundTo = time.Millisecond

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"site.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site from content and configuration"`
	Serve ServeCmd `cmd:"" help:"Build the site and serve it locally with live reload"`
	Init  InitCmd  `cmd:"" help:"Initialize a new site configuration file"`
	Check CheckCmd `cmd:"" help:"Build the site and report broken internal links"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ResolveOutputDir determines the final output directory.
// Priority: CLI flag > config directory.
func ResolveOutputDir(cliOutput string, cfg *config.Config) string {
	if cliOutput != "" {
		return cliOutput
	}
	if cfg.Output.Directory != "" {
		return cfg.Output.Directory
	}
	return "./public"
}

// NewSiteBuilder assembles a builder from config: git-derived lastmod
// dates and, when enabled, the internal link checker.
func NewSiteBuilder(cfg *config.Config, outputDir string, checkLinks bool) (*site.Builder, func(), error) {
	builder := site.NewBuilder(cfg, outputDir)
	cleanup := func() {}

	if resolver, err := gitinfo.Open(cfg.Content.Directory); err != nil {
		slog.Warn("git metadata unavailable", logfields.Error(err))
	} else if resolver != nil {
		builder.WithLastmod(resolver.Lastmod)
	}

	if checkLinks || cfg.LinkCheck.Enabled {
		checker := linkcheck.NewChecker(cfg)
		if cfg.LinkCheck.NATSURL != "" {
			publisher, err := linkcheck.NewNATSPublisher(cfg)
			if err != nil {
				return nil, cleanup, fmt.Errorf("connect link event publisher: %w", err)
			}
			checker.WithPublisher(publisher)
			cleanup = publisher.Close
		}
		builder.WithVerifier(checker)
	}

	return builder, cleanup, nil
}

// historyPath resolves the sqlite build history location; empty disables it.
func historyPath(cfg *config.Config) string {
	if cfg.History.Path == "" {
		return ""
	}
	return filepath.Clean(cfg.History.Path)
}
