package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pageforge/pageforge/pkg/pipeline"
)

func newTestServer(t *testing.T, manifest string) *Server {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "page.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return New(pipeline.NewRunner(nil, nil), path, "localhost:0", pipeline.Options{}, nil)
}

const validManifest = `
metadata:
  title: Dev Page
  description: served page
structure:
  div:
    text: served content
`

func TestServePage(t *testing.T) {
	s := newTestServer(t, validManifest)
	s.Rebuild(context.Background())

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "served content") {
		t.Error("page content missing")
	}
	if !strings.Contains(string(body), "new WebSocket") {
		t.Error("live reload script not injected")
	}
	if !strings.Contains(string(body), "<title>Dev Page</title>") {
		t.Error("converted head missing")
	}
}

func TestServeBuildError(t *testing.T) {
	s := newTestServer(t, "metadata:\n  description: no title\nstructure:\n  p:\n    text: x\n")
	s.Rebuild(context.Background())

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Build failed") {
		t.Error("error page missing")
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, validManifest)

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestRebuildPicksUpChanges(t *testing.T) {
	s := newTestServer(t, validManifest)
	ctx := context.Background()
	s.Rebuild(ctx)

	if err := os.WriteFile(s.ManifestPath, []byte(strings.Replace(validManifest, "served content", "updated content", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	s.Rebuild(ctx)

	s.mu.RLock()
	page := string(s.page)
	s.mu.RUnlock()
	if !strings.Contains(page, "updated content") {
		t.Error("rebuild did not pick up manifest change")
	}
}

func TestSnapshotChangeDetection(t *testing.T) {
	s := newTestServer(t, validManifest)

	before := s.snapshot()
	if changed(before, s.snapshot()) {
		t.Error("unchanged files should not report a change")
	}

	// A new sibling template must be watched too.
	sibling := filepath.Join(filepath.Dir(s.ManifestPath), "base.yaml")
	if err := os.WriteFile(sibling, []byte("metadata:\n  title: B\nstructure:\n  p:\n    text: b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !changed(before, s.snapshot()) {
		t.Error("new sibling manifest should report a change")
	}
}

func TestInjectLiveReloadWithoutBodyTag(t *testing.T) {
	out := injectLiveReload([]byte("<p>bare fragment</p>"))
	if !strings.Contains(string(out), "new WebSocket") {
		t.Error("script should be appended when no body tag exists")
	}
}
