package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pageforge/pageforge/pkg/cache"
	"github.com/pageforge/pageforge/pkg/manifest"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
  <title>Sample Article</title>
  <meta name="description" content="An article about things">
  <meta name="author" content="Jo Writer">
  <link rel="stylesheet" href="/css/site.css">
  <script src="/js/app.js"></script>
  <style>.hidden { display: none; }</style>
</head>
<body>
  <header class="top">
    <h1>Sample Article</h1>
  </header>
  <main>
    <p style="color: red">First paragraph.</p>
    <p>Second <em>paragraph</em>.</p>
    <script>evil()</script>
  </main>
  <footer>
    <span>footer text</span>
  </footer>
</body>
</html>`

func TestParseMetadataAndImports(t *testing.T) {
	s := New(nil)

	m, err := s.Parse([]byte(samplePage), "https://example.com/article")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if m.Title() != "Sample Article" {
		t.Errorf("Title = %q", m.Title())
	}
	if m.Description() != "An article about things" {
		t.Errorf("Description = %q", m.Description())
	}
	if m.Author() != "Jo Writer" {
		t.Errorf("Author = %q", m.Author())
	}
	if m.Metadata["source_url"] != "https://example.com/article" {
		t.Errorf("source_url = %v", m.Metadata["source_url"])
	}
	if len(m.Imports.Styles) != 1 || m.Imports.Styles[0] != "/css/site.css" {
		t.Errorf("Imports.Styles = %v", m.Imports.Styles)
	}
	if len(m.Imports.Scripts) != 1 || m.Imports.Scripts[0] != "/js/app.js" {
		t.Errorf("Imports.Scripts = %v", m.Imports.Scripts)
	}
	if m.Styles["hidden"] != "display: none" {
		t.Errorf("Styles = %v, want inline class rule recovered", m.Styles)
	}
}

func TestParseOpenGraphFallback(t *testing.T) {
	s := New(nil)

	page := `<html><head>
	  <meta property="og:title" content="OG Title">
	  <meta property="og:description" content="OG description">
	</head><body><p>hi</p></body></html>`
	m, err := s.Parse([]byte(page), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Title() != "OG Title" {
		t.Errorf("Title = %q, want og:title fallback", m.Title())
	}
	if m.Description() != "OG description" {
		t.Errorf("Description = %q", m.Description())
	}
}

func TestExtractClassRules(t *testing.T) {
	m := &manifest.Manifest{}
	css := `
	  .box { color: red; }
	  .hero{font-size:3rem}
	  div .nested { color: blue; }
	  #page { margin: 0; }
	  .empty { }
	`
	extractClassRules(css, m)

	if m.Styles["box"] != "color: red" {
		t.Errorf("box = %q", m.Styles["box"])
	}
	if m.Styles["hero"] != "font-size:3rem" {
		t.Errorf("hero = %q", m.Styles["hero"])
	}
	for _, name := range []string{"nested", "empty", "page"} {
		if _, ok := m.Styles[name]; ok {
			t.Errorf("%q should not be recovered", name)
		}
	}
}

func TestParseStructure(t *testing.T) {
	s := New(nil)

	m, err := s.Parse([]byte(samplePage), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	hist := manifest.TagHistogram(m.Structure)
	if hist["header"] != 1 || hist["main"] != 1 || hist["footer"] != 1 {
		t.Errorf("layout elements missing: %v", hist)
	}
	if hist["p"] != 2 {
		t.Errorf("p count = %d, want 2", hist["p"])
	}
	if hist["script"] != 0 {
		t.Error("script elements must be dropped")
	}

	var sawInline bool
	manifest.Walk(m.Structure, func(n *manifest.Node, _ *manifest.WalkContext) *manifest.Node {
		if n.StyleRef == "color: red" {
			sawInline = true
		}
		return n
	})
	if !sawInline {
		t.Error("inline style attribute should be preserved as a style ref")
	}
}

func TestParseWithSelector(t *testing.T) {
	s := New(nil)
	s.Selector = "main"

	m, err := s.Parse([]byte(samplePage), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	hist := manifest.TagHistogram(m.Structure)
	if hist["header"] != 0 || hist["footer"] != 0 {
		t.Errorf("selector should exclude header/footer: %v", hist)
	}
	if hist["p"] != 2 {
		t.Errorf("p count = %d, want 2", hist["p"])
	}
}

func TestParseDepthLimitFlattens(t *testing.T) {
	s := New(nil)
	s.MaxDepth = 1

	m, err := s.Parse([]byte(samplePage), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := manifest.MaxDepth(m.Structure); got > 1 {
		t.Errorf("MaxDepth = %d, want <= 1", got)
	}
	var text string
	manifest.Walk(m.Structure, func(n *manifest.Node, _ *manifest.WalkContext) *manifest.Node { return n })
	collectText(m.Structure, &text)
	if !strings.Contains(text, "First paragraph.") {
		t.Errorf("flattened text lost content: %q", text)
	}
}

func collectText(n *manifest.Node, out *string) {
	if n == nil {
		return
	}
	if n.Kind == manifest.KindText {
		*out += n.Text + " "
		return
	}
	for _, c := range n.Children {
		collectText(c, out)
	}
}

func TestParseNoTitleFallback(t *testing.T) {
	s := New(nil)

	m, err := s.Parse([]byte("<html><body><p>hi</p></body></html>"), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Title() != "Scraped Page" {
		t.Errorf("Title = %q, want fallback", m.Title())
	}
}

func TestScrapeFetchesAndCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := New(fileCache)

	ctx := context.Background()
	if _, err := s.Scrape(ctx, srv.URL); err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if _, err := s.Scrape(ctx, srv.URL); err != nil {
		t.Fatalf("Scrape (cached): %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (second scrape should be cached)", hits)
	}
}

func TestScrapeMissingPage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := New(nil)
	if _, err := s.Scrape(context.Background(), srv.URL+"/gone"); err == nil {
		t.Error("404 should fail")
	}
}
