// Package cache provides pluggable byte caches for remote manifest and page
// fetches.
//
// Remote template ancestors (extends: https://...) and scraped pages are
// fetched through a Cache so repeated conversions don't refetch identical
// content. Three backends are provided:
//
//   - [FileCache]: directory-backed, for CLI usage
//   - [RedisCache]: Redis-backed, for the dev server and shared environments
//   - [NullCache]: no-op, for tests and --refresh runs
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the default lifetime of cached fetches.
const DefaultTTL = time.Hour

// Cache stores opaque byte payloads under string keys with optional
// expiration.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Key builds a namespaced cache key from a reference string. The reference
// is hashed so arbitrary URLs and paths produce filesystem- and
// Redis-safe keys.
func Key(namespace, ref string) string {
	return namespace + ":" + Hash([]byte(ref))
}
