package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".ico": true, ".pdf": true, ".css": true, ".js": true,
	".txt": true, ".woff": true, ".woff2": true,
}

// Discover walks the content directory and returns every markdown document
// and copyable asset beneath it. Results are sorted by relative path so a
// build sees the same ordering regardless of filesystem iteration order.
func Discover(contentDir string) ([]Document, error) {
	if _, err := os.Stat(contentDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("content directory not found: %s", contentDir)
	}

	var docs []Document
	err := filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			// Hidden and underscore-prefixed directories hold working files,
			// not publishable content.
			if path != contentDir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		isMarkdown := ext == ".md" || ext == ".markdown"
		isAsset := assetExtensions[ext]
		if !isMarkdown && !isAsset {
			return nil
		}

		relPath, err := filepath.Rel(contentDir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		section := ""
		if idx := strings.Index(relPath, "/"); idx >= 0 {
			section = relPath[:idx]
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		docs = append(docs, Document{
			Path:         path,
			RelativePath: relPath,
			Section:      section,
			Name:         strings.TrimSuffix(name, filepath.Ext(name)),
			Extension:    filepath.Ext(name),
			Content:      raw,
			IsAsset:      isAsset,
		})

		slog.Debug("Discovered content file", logfields.Path(relPath), logfields.Section(section))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].RelativePath < docs[j].RelativePath })

	slog.Info("Content discovered", logfields.Count(len(docs)))
	return docs, nil
}
