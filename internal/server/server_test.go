package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

func testConfig(t *testing.T, outputDir string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Output.Directory = outputDir
	return cfg
}

func TestHandlerServesGeneratedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte("<html><body><h1>Home</h1></body></html>"), 0o644))

	cfg := testConfig(t, dir)
	srv := New(cfg, dir, func(context.Context) (*site.Report, error) {
		return site.NewReport(), nil
	})

	rr := httptest.NewRecorder()
	srv.handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "<h1>Home</h1>")
}

func TestHandlerInjectsLiveReloadScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte("<html><body><p>hi</p></body></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"),
		[]byte("body { color: red }"), 0o644))

	cfg := testConfig(t, dir)
	srv := New(cfg, dir, func(context.Context) (*site.Report, error) {
		return site.NewReport(), nil
	})
	h := srv.handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	body := rr.Body.String()
	require.Contains(t, body, "EventSource('/livereload')")
	require.Less(t, strings.Index(body, "EventSource"), strings.Index(body, "</body>"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/style.css", nil))
	require.NotContains(t, rr.Body.String(), "EventSource")
}

func TestHandlerSkipsInjectionWhenLiveReloadDisabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte("<html><body></body></html>"), 0o644))

	cfg := testConfig(t, dir)
	disabled := false
	cfg.Serve.LiveReload = &disabled
	srv := New(cfg, dir, func(context.Context) (*site.Report, error) {
		return site.NewReport(), nil
	})
	h := srv.handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotContains(t, rr.Body.String(), "EventSource")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/livereload", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthzReportsLastError(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	srv := New(cfg, dir, func(context.Context) (*site.Report, error) {
		return site.NewReport(), nil
	})
	h := srv.handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"status":"ok"`)

	srv.mu.Lock()
	srv.lastError = os.ErrNotExist
	srv.mu.Unlock()

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Contains(t, rr.Body.String(), `"status":"degraded"`)
}

func TestRebuildQueuesSingleFollowUp(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	builds := make(chan struct{}, 16)
	srv := New(cfg, dir, func(context.Context) (*site.Report, error) {
		builds <- struct{}{}
		return site.NewReport(), nil
	})

	srv.rebuild(context.Background(), "change")
	require.Len(t, builds, 1)

	// Simulate a burst arriving while a build is marked running.
	srv.mu.Lock()
	srv.running = true
	srv.mu.Unlock()
	srv.rebuild(context.Background(), "change")
	srv.rebuild(context.Background(), "change")
	srv.mu.Lock()
	require.True(t, srv.pending)
	srv.running = false
	srv.pending = false
	srv.mu.Unlock()
	require.Len(t, builds, 1)
}

func TestRebuildBroadcastsBuildID(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	var report *site.Report
	srv := New(cfg, dir, func(context.Context) (*site.Report, error) {
		report = site.NewReport()
		return report, nil
	})

	srv.rebuild(context.Background(), "change")
	require.NotNil(t, report)

	srv.hub.mu.RLock()
	token := srv.hub.lastToken
	srv.hub.mu.RUnlock()
	require.Equal(t, report.BuildID, token)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "post.md"), []byte("# hi"), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-w.Rebuild():
	case <-time.After(3 * time.Second):
		t.Fatal("expected a rebuild request after file changes")
	}

	// The burst collapses into a single request.
	select {
	case <-w.Rebuild():
		t.Fatal("expected changes to coalesce into one rebuild")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherSkipsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, filepath.Join(dir, "does-not-exist"), "")
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestLiveReloadHubBroadcast(t *testing.T) {
	hub := NewLiveReloadHub()
	defer hub.Close()

	ts := httptest.NewServer(hub)
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	hub.Broadcast("build-1")

	buf := make([]byte, 4096)
	deadline := time.Now().Add(2 * time.Second)
	var got strings.Builder
	for time.Now().Before(deadline) {
		n, readErr := resp.Body.Read(buf)
		got.Write(buf[:n])
		if strings.Contains(got.String(), "build-1") {
			break
		}
		if readErr != nil {
			break
		}
	}
	require.Contains(t, got.String(), `"token":"build-1"`)
}

func TestLiveReloadHubClosedRejectsClients(t *testing.T) {
	hub := NewLiveReloadHub()
	hub.Close()

	rr := httptest.NewRecorder()
	hub.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/livereload", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
