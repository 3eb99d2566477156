// Package cache provides caching for the flowcanvas engine.
//
// Two layers live here:
//
//   - [LRU] is a generic, typed, in-process cache with a per-entry time to
//     live and least-recently-used eviction. The engine memoises derived
//     data in it (branch lists, symmetric position sets) keyed by a hash of
//     the inputs, so repeated drags over the same graph do not recompute.
//   - [Cache] is a byte-level backend interface for snapshots that outlive
//     a single editor: [MemoryCache], [FileCache] (CLI default), [RedisCache]
//     (shared across processes) and [NullCache] (disabled).
//
// Keys for the byte-level backends are produced by a [Keyer], which hashes
// every input that can change the cached value.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-level key/value store with optional expiry.
//
// A ttl of zero or less means the entry does not expire on its own.
// Implementations return (nil, false, nil) on a miss; errors are reserved
// for backend failures.
type Cache interface {
	// Get retrieves a value. The boolean reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given time to live.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
