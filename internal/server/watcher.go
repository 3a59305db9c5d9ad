package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

const debounceWindow = 300 * time.Millisecond

// Watcher observes source directories and coalesces bursts of filesystem
// events into single rebuild requests.
type Watcher struct {
	fsw     *fsnotify.Watcher
	rebuild chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches each existing path in paths recursively. Missing
// paths are skipped so a site without a layouts dir still works.
func NewWatcher(paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{fsw: fsw, rebuild: make(chan struct{}, 1)}
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, statErr := os.Stat(p)
		if statErr != nil {
			continue
		}
		if !info.IsDir() {
			if addErr := fsw.Add(p); addErr != nil {
				_ = fsw.Close()
				return nil, fmt.Errorf("watch %s: %w", p, addErr)
			}
			continue
		}
		if addErr := addDirsRecursive(fsw, p); addErr != nil {
			_ = fsw.Close()
			return nil, addErr
		}
	}
	return w, nil
}

// Rebuild yields one value per debounced burst of changes.
func (w *Watcher) Rebuild() <-chan struct{} { return w.rebuild }

// Run processes filesystem events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ignoreEvent(ev) {
				continue
			}
			// New directories need to be added to the watch set.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addDirsRecursive(w.fsw, ev.Name)
				}
			}
			slog.Debug("source change detected", logfields.Path(ev.Name))
			w.trigger()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceWindow, func() {
		select {
		case w.rebuild <- struct{}{}:
		default:
		}
	})
}

func ignoreEvent(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return true
	}
	// Editor swap and backup files cause noisy rebuild storms.
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return true
	}
	return ev.Op == fsnotify.Chmod
}

func addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if addErr := fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch %s: %w", path, addErr)
		}
		return nil
	})
}
