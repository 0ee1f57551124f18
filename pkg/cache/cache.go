// Package cache stores rendered diagram artifacts so unchanged models skip
// Graphviz on the next run.
//
// # Backends
//
//   - [FileCache]: JSON entries below a directory, the CLI default
//   - [MemoryCache]: bounded in-process LRU, useful for --singles runs and tests
//   - [RedisCache]: shared cache for CI runners, enabled by MULEFLOW_REDIS_URL
//   - [NullCache]: caching disabled
//
// # Keys
//
// Keys come from a [Keyer] and combine the content hash of the diagram with
// every request option that changes the output:
//
//	key := cache.NewDefaultKeyer().ArtifactKey(cache.Hash(data), cache.ArtifactKeyOpts{
//	    Format:      "svg",
//	    DiagramType: "graph",
//	})
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long rendered artifacts stay cached.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte-oriented key-value store with expiry. Implementations must
// be safe for concurrent use.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the cache.
	Close() error
}

// ArtifactKeyOpts holds the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format      string `json:"format"`
	DiagramType string `json:"diagram_type"`
	Title       string `json:"title,omitempty"`
	Detailed    bool   `json:"detailed,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey returns the key of an artifact rendered from content with
	// the given hash.
	ArtifactKey(contentHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey returns "artifact:" followed by a hash of all inputs.
func (DefaultKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", contentHash, opts)
}
