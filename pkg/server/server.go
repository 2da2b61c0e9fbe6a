// Package server implements the PageForge dev server: it converts a
// manifest to HTML, serves the result, and pushes live reloads to connected
// browsers when the manifest (or any manifest in its directory) changes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/pipeline"
)

// DefaultPollInterval is how often watched manifests are checked for
// changes.
const DefaultPollInterval = 500 * time.Millisecond

// liveReloadScript is injected into served pages. It reconnects with a
// delay so an in-flight rebuild doesn't drop the browser permanently.
const liveReloadScript = `<script>
(function () {
  function connect() {
    var ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
    ws.onmessage = function (ev) { if (ev.data === 'reload') location.reload(); };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>`

// Server serves a converted manifest with live reload.
type Server struct {
	Addr         string
	ManifestPath string
	Runner       *pipeline.Runner
	Options      pipeline.Options
	Logger       *log.Logger
	PollInterval time.Duration

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	page     []byte
	buildErr error
	clients  map[*websocket.Conn]bool
}

// New creates a dev server for one manifest.
func New(runner *pipeline.Runner, manifestPath, addr string, opts pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	opts.ManifestPath = manifestPath
	opts.ManifestData = nil
	opts.Formats = []string{"html"}

	return &Server{
		Addr:         addr,
		ManifestPath: manifestPath,
		Runner:       runner,
		Options:      opts,
		Logger:       logger,
		PollInterval: DefaultPollInterval,
		clients:      make(map[*websocket.Conn]bool),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWS)
	return r
}

// Start builds the page, begins watching for changes, and serves until the
// context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.Rebuild(ctx)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.watch(watchCtx)

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.Logger.Info("dev server listening", "addr", s.Addr, "manifest", s.ManifestPath)

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Rebuild reconverts the manifest and stores the result for serving.
func (s *Server) Rebuild(ctx context.Context) {
	res, err := s.Runner.Execute(ctx, s.Options)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.buildErr = err
		s.Logger.Error("rebuild failed", "err", err)
		return
	}
	out := res.Outputs["html"]
	s.page = []byte(out.Content)
	s.buildErr = nil
	s.Logger.Info("rebuilt page", "bytes", len(s.page), "warnings", len(res.Warnings))
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	page, buildErr := s.page, s.buildErr
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if buildErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, errorPage, pferrors.UserMessage(buildErr), liveReloadScript)
		return
	}
	_, _ = w.Write(injectLiveReload(page))
}

const errorPage = `<!DOCTYPE html>
<html lang="en">
<head><title>PageForge build error</title></head>
<body>
  <h1>Build failed</h1>
  <pre>%s</pre>
%s</body>
</html>
`

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	// Reads only surface disconnects; clients never send payloads.
	go func() {
		defer s.dropClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) dropClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

// broadcast notifies every connected browser.
func (s *Server) broadcast(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			delete(s.clients, conn)
			_ = conn.Close()
		}
	}
}

// =============================================================================
// File watching
// =============================================================================

// watch polls the manifest directory for YAML changes and triggers rebuild
// plus reload on modification.
func (s *Server) watch(ctx context.Context) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := s.snapshot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := s.snapshot()
			if changed(last, current) {
				last = current
				s.Logger.Info("manifest changed, rebuilding")
				s.Rebuild(ctx)
				s.broadcast("reload")
			}
		}
	}
}

// snapshot records mtimes for the manifest and its sibling YAML files, so
// edits to ancestor templates also trigger reloads.
func (s *Server) snapshot() map[string]time.Time {
	out := make(map[string]time.Time)
	record := func(path string) {
		if info, err := os.Stat(path); err == nil {
			out[path] = info.ModTime()
		}
	}
	record(s.ManifestPath)

	dir := filepath.Dir(s.ManifestPath)
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, _ := filepath.Glob(filepath.Join(dir, pattern))
		for _, m := range matches {
			record(m)
		}
	}
	return out
}

func changed(a, b map[string]time.Time) bool {
	if len(a) != len(b) {
		return true
	}
	for path, mtime := range b {
		if prev, ok := a[path]; !ok || !prev.Equal(mtime) {
			return true
		}
	}
	return false
}

// injectLiveReload inserts the reload script before </body>, or at the end
// when no body tag exists (e.g. minified output variations).
func injectLiveReload(page []byte) []byte {
	const marker = "</body>"
	html := string(page)
	if i := strings.LastIndex(html, marker); i >= 0 {
		return []byte(html[:i] + liveReloadScript + "\n" + html[i:])
	}
	return append(page, []byte("\n"+liveReloadScript)...)
}
