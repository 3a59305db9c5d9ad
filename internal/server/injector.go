package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

// liveReloadScript is served inline on every page when live reload is
// enabled. It connects to the SSE endpoint on the same origin and
// reloads the page whenever the build token changes.
const liveReloadScript = `<script>(() => {
  if (window.__SITEBUILDER_LR__) return;
  window.__SITEBUILDER_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let first = true; let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (first) { current = p.token; first = false; return; }
        if (p.token && p.token !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();</script>`

// injectLiveReload wraps next so that HTML responses get the live reload
// client script appended before the closing body tag.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		isHTML := p == "/" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html")
		if !isHTML {
			next.ServeHTTP(w, r)
			return
		}
		inj := &scriptInjector{ResponseWriter: w}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// scriptInjector buffers an HTML response and rewrites it on finalize.
// Non-HTML responses pass through untouched.
type scriptInjector struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	passthrough bool
	headerSent  bool
}

func (i *scriptInjector) WriteHeader(status int) {
	i.status = status
	ct := i.Header().Get("Content-Type")
	if status != http.StatusOK || (ct != "" && !strings.Contains(ct, "text/html")) {
		i.passthrough = true
		i.ResponseWriter.WriteHeader(status)
		i.headerSent = true
	}
}

func (i *scriptInjector) Write(b []byte) (int, error) {
	if i.status == 0 {
		i.WriteHeader(http.StatusOK)
	}
	if i.passthrough {
		return i.ResponseWriter.Write(b)
	}
	return i.buf.Write(b)
}

func (i *scriptInjector) finalize() {
	if i.passthrough {
		return
	}
	body := i.buf.Bytes()
	if idx := bytes.LastIndex(body, []byte("</body>")); idx >= 0 {
		out := make([]byte, 0, len(body)+len(liveReloadScript))
		out = append(out, body[:idx]...)
		out = append(out, liveReloadScript...)
		out = append(out, body[idx:]...)
		body = out
	}
	i.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if !i.headerSent {
		status := i.status
		if status == 0 {
			status = http.StatusOK
		}
		i.ResponseWriter.WriteHeader(status)
	}
	_, _ = i.ResponseWriter.Write(body)
}
