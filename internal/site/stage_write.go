package site

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"log/slog"
)

// stageWrite materializes every artifact under the output directory and
// copies assets through. Writes happen last so a failed build never leaves a
// half-written tree next to a previous good one (with clean enabled).
func stageWrite(ctx context.Context, bs *buildState) error {
	collectAssetArtifacts(bs)

	if bs.cfg.Output.Clean {
		if err := os.RemoveAll(bs.outputDir); err != nil {
			return fmt.Errorf("%w: clean output dir: %w", ErrWrite, err)
		}
	}
	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return fmt.Errorf("%w: create output dir: %w", ErrWrite, err)
	}

	for _, a := range bs.artifacts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dst := filepath.Join(bs.outputDir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWrite, a.Path, err)
		}
		if err := os.WriteFile(dst, a.Bytes, 0o644); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWrite, a.Path, err)
		}
	}

	slog.Info("Artifacts written", logfields.Count(len(bs.artifacts)), logfields.Path(bs.outputDir))
	return nil
}

// collectAssetArtifacts registers content-tree assets and static-dir files
// as artifacts so they are written, counted and visible to verification.
func collectAssetArtifacts(bs *buildState) {
	for _, asset := range bs.assets {
		bs.addArtifact(Artifact{Path: asset.RelativePath, Format: FormatAsset, Bytes: asset.Content})
	}

	staticDir := bs.cfg.Content.StaticDir
	if staticDir == "" {
		return
	}
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		return
	}

	_ = filepath.WalkDir(staticDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(staticDir, path)
		if err != nil {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Skipping unreadable static file", logfields.Path(path), logfields.Error(err))
			return nil
		}
		bs.addArtifact(Artifact{Path: filepath.ToSlash(rel), Format: FormatAsset, Bytes: raw})
		return nil
	})
}
