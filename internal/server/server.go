package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// BuildFunc runs one full site build and returns its report.
type BuildFunc func(ctx context.Context) (*site.Report, error)

// Server serves the generated site during development. It watches the
// source tree, rebuilds on change, and notifies browsers over SSE.
type Server struct {
	cfg       *config.Config
	outputDir string
	build     BuildFunc
	hub       *LiveReloadHub
	store     *history.Store
	metrics   http.Handler

	mu        sync.Mutex
	running   bool
	pending   bool
	lastError error
}

type Option func(*Server)

// WithHistory records every rebuild report in the given store.
func WithHistory(store *history.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithMetricsHandler exposes h on the configured metrics path.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func New(cfg *config.Config, outputDir string, build BuildFunc, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		outputDir: outputDir,
		build:     build,
		hub:       NewLiveReloadHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves until ctx is canceled. The initial build is the caller's
// responsibility; Run only handles incremental rebuilds.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcher, err := s.startWatcher(ctx)
	if err != nil {
		return err
	}
	if watcher != nil {
		defer func() { _ = watcher.Close() }()
	}

	scheduler, err := s.startScheduler(ctx)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	srv := &http.Server{
		Handler:     s.handler(),
		ReadTimeout: 10 * time.Second,
		// No write timeout: /livereload holds long-lived SSE streams.
		IdleTimeout: 300 * time.Second,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Serve.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Serve.Port, err)
	}
	slog.Info("serving site", logfields.Port(s.cfg.Serve.Port), logfields.Path(s.outputDir),
		logfields.URL(fmt.Sprintf("http://localhost:%d/", s.cfg.Serve.Port)))

	errCh := make(chan error, 1)
	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		return err
	}

	s.hub.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) startWatcher(ctx context.Context) (*Watcher, error) {
	watcher, err := NewWatcher(s.cfg.Content.Directory, s.cfg.Content.StaticDir, s.cfg.Content.LayoutDir, s.cfg.Path())
	if err != nil {
		return nil, err
	}
	go watcher.Run(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-watcher.Rebuild():
				s.rebuild(ctx, "change")
			}
		}
	}()
	return watcher, nil
}

func (s *Server) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	interval := s.cfg.Serve.RebuildIntervalDuration()
	if interval <= 0 {
		return nil, nil
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.rebuild(ctx, "periodic") }),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule periodic rebuild: %w", err)
	}
	scheduler.Start()
	slog.Info("periodic rebuild scheduled", slog.Duration("interval", interval))
	return scheduler, nil
}

// rebuild runs one build, queueing at most one follow-up when a build
// is already in flight.
func (s *Server) rebuild(ctx context.Context, reason string) {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	for {
		slog.Info("rebuilding site", slog.String("reason", reason))
		report, err := s.build(ctx)
		s.mu.Lock()
		s.lastError = err
		s.mu.Unlock()
		if err != nil {
			slog.Warn("rebuild failed", logfields.Error(err))
		} else {
			s.recordHistory(ctx, report)
			if s.cfg.Serve.LiveReloadEnabled() {
				s.hub.Broadcast(report.BuildID)
			}
		}

		s.mu.Lock()
		if !s.pending {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()
		reason = "queued"
	}
}

func (s *Server) recordHistory(ctx context.Context, report *site.Report) {
	if s.store == nil || report == nil {
		return
	}
	if err := s.store.Append(ctx, report); err != nil {
		slog.Warn("record build history", logfields.Error(err))
	}
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	var files http.Handler = http.FileServer(http.Dir(s.outputDir))
	if s.cfg.Serve.LiveReloadEnabled() {
		files = injectLiveReload(files)
		mux.Handle("/livereload", s.hub)
	}
	mux.Handle("/", files)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		lastErr := s.lastError
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		status := map[string]any{"status": "ok"}
		if lastErr != nil {
			status["status"] = "degraded"
			status["last_error"] = lastErr.Error()
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	if s.store != nil {
		mux.HandleFunc("/api/builds", s.handleBuilds)
	}
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		mux.Handle(s.cfg.Metrics.Path, s.metrics)
	}

	return logRequests(mux)
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Recent(r.Context(), 20)
	if err != nil {
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		slog.Warn("load build history", logfields.Error(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// logRequests emits one slog line per request, skipping the SSE
// endpoint whose requests stay open for the whole session.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/livereload" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("request",
			slog.String("method", r.Method),
			logfields.Path(r.URL.Path),
			slog.Int("status", rec.status),
			logfields.DurationMS(float64(time.Since(start).Milliseconds())),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
