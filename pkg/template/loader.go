// Package template resolves manifest inheritance: loading ancestor
// manifests through an injected loader, merging metadata, styles, imports,
// and structure (with named slot substitution), and substituting
// {{ variable }} placeholders in the resolved result.
package template

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/pageforge/pageforge/pkg/cache"
	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/manifest"
)

// Loader fetches an ancestor manifest by reference. Implementations perform
// the file or network I/O the resolver itself stays free of.
type Loader interface {
	Load(ctx context.Context, ref string) (*manifest.Manifest, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, ref string) (*manifest.Manifest, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, ref string) (*manifest.Manifest, error) {
	return f(ctx, ref)
}

// =============================================================================
// File loader
// =============================================================================

// FileLoader loads ancestor manifests from the local filesystem. Relative
// references are resolved against Base, typically the directory of the
// manifest being converted.
type FileLoader struct {
	Base string
}

// Load reads and parses the referenced manifest file.
func (l *FileLoader) Load(ctx context.Context, ref string) (*manifest.Manifest, error) {
	path := ref
	if !filepath.IsAbs(path) && l.Base != "" {
		path = filepath.Join(l.Base, path)
	}
	m, err := manifest.ParseFile(path)
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeTemplateNotFound, err, "ancestor manifest %q", ref)
	}
	return m, nil
}

// =============================================================================
// HTTP loader
// =============================================================================

// HTTPLoader fetches remote ancestor manifests over HTTP, storing responses
// in a cache so repeated conversions don't refetch identical templates.
type HTTPLoader struct {
	Client *http.Client
	Cache  cache.Cache
	TTL    time.Duration
}

// NewHTTPLoader creates an HTTP loader backed by the given cache. A nil
// cache disables caching.
func NewHTTPLoader(c cache.Cache) *HTTPLoader {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &HTTPLoader{
		Client: &http.Client{Timeout: 30 * time.Second},
		Cache:  c,
		TTL:    cache.DefaultTTL,
	}
}

// Load fetches the referenced manifest, consulting the cache first.
// Transient failures (connection errors, 5xx responses) are retried with
// exponential backoff.
func (l *HTTPLoader) Load(ctx context.Context, ref string) (*manifest.Manifest, error) {
	key := cache.Key("template", ref)
	if data, ok, _ := l.Cache.Get(ctx, key); ok {
		return parseAncestor(ref, data)
	}

	var body []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		data, fetchErr := l.fetch(ctx, ref)
		if fetchErr != nil {
			return fetchErr
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeNetwork, err, "failed to fetch ancestor %q", ref)
	}

	_ = l.Cache.Set(ctx, key, body, l.TTL)
	return parseAncestor(ref, body)
}

func (l *HTTPLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.Client.Do(req)
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

func parseAncestor(ref string, data []byte) (*manifest.Manifest, error) {
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeTemplate, err, "ancestor %q is not a valid manifest", ref)
	}
	return m, nil
}

// =============================================================================
// Dispatching loader
// =============================================================================

// NewLoader builds the default loader: HTTP references go through the cached
// HTTP loader, everything else is treated as a filesystem path relative to
// base.
func NewLoader(base string, c cache.Cache) Loader {
	file := &FileLoader{Base: base}
	httpLoader := NewHTTPLoader(c)
	return LoaderFunc(func(ctx context.Context, ref string) (*manifest.Manifest, error) {
		if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
			return httpLoader.Load(ctx, ref)
		}
		return file.Load(ctx, ref)
	})
}
