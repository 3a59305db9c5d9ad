package site

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// stagePrepare parses layout templates so template problems abort the build
// before any content work happens.
func stagePrepare(_ context.Context, bs *buildState) error {
	tmpl, err := loadTemplates(bs.cfg.Content.LayoutDir)
	if err != nil {
		return fmt.Errorf("load layouts: %w", err)
	}
	bs.tmpl = tmpl

	if bs.outputDir == "" {
		return fmt.Errorf("output directory not set")
	}
	if abs, err := filepath.Abs(bs.outputDir); err == nil {
		bs.outputDir = abs
	}
	// Refuse to clean a directory that exists but is not a directory.
	if fi, err := os.Stat(bs.outputDir); err == nil && !fi.IsDir() {
		return fmt.Errorf("output path %s exists and is not a directory", bs.outputDir)
	}
	return nil
}
