// Package scrape converts existing web pages back into manifests. It is the
// reverse direction of the converters: fetch a page, extract its metadata
// and resource imports, and simplify its DOM into a structure tree that
// round-trips through the YAML manifest format.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/pageforge/pageforge/pkg/cache"
	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/manifest"
)

// DefaultMaxDepth bounds structure simplification. Deeper DOM content is
// flattened into its parent.
const DefaultMaxDepth = 12

// skipTags are DOM elements dropped entirely during simplification.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"iframe": true, "svg": true, "canvas": true,
}

// Scraper fetches pages and converts them into manifests.
type Scraper struct {
	Client *http.Client
	Cache  cache.Cache

	// MaxDepth bounds the structure tree depth. Zero means DefaultMaxDepth.
	MaxDepth int

	// Selector restricts scraping to the first matching element instead of
	// the whole body (CSS selector syntax).
	Selector string
}

// New creates a scraper backed by the given cache. A nil cache disables
// response caching.
func New(c cache.Cache) *Scraper {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Scraper{
		Client: &http.Client{Timeout: 30 * time.Second},
		Cache:  c,
	}
}

// Scrape fetches a page and converts it into a manifest. Responses are
// cached; transient fetch failures are retried with backoff.
func (s *Scraper) Scrape(ctx context.Context, url string) (*manifest.Manifest, error) {
	key := cache.Key("page", url)
	if data, ok, _ := s.Cache.Get(ctx, key); ok {
		return s.Parse(data, url)
	}

	var body []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		data, fetchErr := s.fetch(ctx, url)
		if fetchErr != nil {
			return fetchErr
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeNetwork, err, "failed to fetch %q", url)
	}

	_ = s.Cache.Set(ctx, key, body, cache.DefaultTTL)
	return s.Parse(body, url)
}

func (s *Scraper) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "pageforge-scraper/1.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, cache.ErrNotFound
	case resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Parse converts raw HTML into a manifest without any network access.
func (s *Scraper) Parse(data []byte, sourceURL string) (*manifest.Manifest, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeSchema, err, "failed to parse HTML from %q", sourceURL)
	}

	m := &manifest.Manifest{Metadata: map[string]any{}}
	if sourceURL != "" {
		m.Metadata["source_url"] = sourceURL
	}

	s.extractHead(doc, m)
	if _, ok := m.Metadata["title"]; !ok {
		m.Metadata["title"] = "Scraped Page"
	}

	root := s.contentRoot(doc)
	if root == nil {
		return nil, pferrors.New(pferrors.ErrCodeSchema, "no scrapeable content in %q", sourceURL)
	}

	maxDepth := s.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	children := s.simplifyChildren(root, 0, maxDepth)
	switch len(children) {
	case 0:
		return nil, pferrors.New(pferrors.ErrCodeSchema, "no scrapeable content in %q", sourceURL)
	case 1:
		m.Structure = children[0]
	default:
		m.Structure = &manifest.Node{Kind: manifest.KindFragment, Children: children}
	}
	return m, nil
}

// contentRoot picks the element the structure is built from: the selector
// match when configured, otherwise the body.
func (s *Scraper) contentRoot(doc *html.Node) *html.Node {
	if s.Selector != "" {
		sel, err := cascadia.Parse(s.Selector)
		if err == nil {
			if n := cascadia.Query(doc, sel); n != nil {
				return n
			}
		}
		return nil
	}
	return findElement(doc, "body")
}

// extractHead pulls metadata and resource imports out of the document head.
func (s *Scraper) extractHead(doc *html.Node, m *manifest.Manifest) {
	head := findElement(doc, "head")
	if head == nil {
		return
	}
	for n := head.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode {
			continue
		}
		switch n.Data {
		case "title":
			if t := strings.TrimSpace(textContent(n)); t != "" {
				m.Metadata["title"] = t
			}
		case "meta":
			content := attr(n, "content")
			switch attr(n, "name") {
			case "description", "author", "keywords":
				if content != "" {
					m.Metadata[attr(n, "name")] = content
				}
			}
			// Open Graph tags fill gaps that plain meta tags left open.
			switch attr(n, "property") {
			case "og:title":
				if _, ok := m.Metadata["title"]; !ok && content != "" {
					m.Metadata["title"] = content
				}
			case "og:description":
				if _, ok := m.Metadata["description"]; !ok && content != "" {
					m.Metadata["description"] = content
				}
			}
		case "style":
			extractClassRules(rawText(n), m)
		case "link":
			if attr(n, "rel") == "stylesheet" {
				if href := attr(n, "href"); href != "" {
					m.Imports.Styles = append(m.Imports.Styles, href)
				}
			}
		case "script":
			if src := attr(n, "src"); src != "" {
				m.Imports.Scripts = append(m.Imports.Scripts, src)
			}
		}
	}
}

// simplifyChildren converts the renderable children of a DOM node. Depth
// overflow flattens an element into its text content.
func (s *Scraper) simplifyChildren(n *html.Node, depth, maxDepth int) []*manifest.Node {
	var out []*manifest.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if text := collapseSpace(c.Data); text != "" {
				out = append(out, manifest.TextNode(text))
			}
		case html.ElementNode:
			if node := s.simplifyElement(c, depth, maxDepth); node != nil {
				out = append(out, node)
			}
		}
	}
	return out
}

func (s *Scraper) simplifyElement(n *html.Node, depth, maxDepth int) *manifest.Node {
	if skipTags[n.Data] {
		return nil
	}

	if depth >= maxDepth {
		if text := collapseSpace(textContent(n)); text != "" {
			return manifest.TextNode(text)
		}
		return nil
	}

	tag := n.Data
	if !manifest.IsKnownTag(tag) {
		tag = manifest.DefaultTag
	}
	node := &manifest.Node{Kind: manifest.KindElement, Key: n.Data, Tag: tag}

	for _, a := range n.Attr {
		switch a.Key {
		case "class", "id", "href", "src", "alt", "title":
			if a.Val != "" {
				if node.Attrs == nil {
					node.Attrs = make(map[string]string)
				}
				node.Attrs[a.Key] = a.Val
			}
		case "style":
			node.StyleRef = a.Val
		}
	}

	if !manifest.IsVoidTag(tag) {
		node.Children = s.simplifyChildren(n, depth+1, maxDepth)
	}
	if len(node.Children) == 0 && len(node.Attrs) == 0 && node.StyleRef == "" && !manifest.IsVoidTag(tag) {
		// Empty decorative containers add nothing to the manifest.
		return nil
	}
	return node
}

// extractClassRules recovers named styles from inline stylesheet text.
// Only simple single-class rules survive; anything more complex (descendant
// selectors, media queries, element selectors) has no manifest
// representation and is dropped.
func extractClassRules(css string, m *manifest.Manifest) {
	for _, rule := range strings.Split(css, "}") {
		sel, body, ok := strings.Cut(rule, "{")
		if !ok {
			continue
		}
		sel = strings.TrimSpace(sel)
		if len(sel) < 2 || !strings.HasPrefix(sel, ".") || strings.ContainsAny(sel[1:], " .#:>[,") {
			continue
		}
		decls := strings.Trim(collapseSpace(body), "; ")
		if decls == "" {
			continue
		}
		if m.Styles == nil {
			m.Styles = make(map[string]string)
		}
		if _, exists := m.Styles[sel[1:]]; !exists {
			m.Styles[sel[1:]] = decls
		}
	}
}

// =============================================================================
// DOM helpers
// =============================================================================

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// rawText concatenates the direct text children of n. Unlike textContent it
// does not skip stylesheet content, which is exactly what it is used for.
func rawText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

var spaceReplacer = strings.NewReplacer("\n", " ", "\t", " ", "\r", " ")

func collapseSpace(s string) string {
	s = spaceReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
