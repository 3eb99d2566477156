package cache

import (
	"context"
	"time"
)

// MemoryCache is a byte-level [Cache] backed by an in-process [LRU].
// Entries set without a ttl never expire on their own but still take part
// in capacity eviction.
type MemoryCache struct {
	lru *LRU[string, []byte]
}

// noExpiry stands in for "no ttl" in the underlying LRU.
const noExpiry = 100 * 365 * 24 * time.Hour

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) Cache {
	return &MemoryCache{lru: NewLRU[string, []byte](LRUOptions{
		MaxSize: maxSize,
		Name:    "memory",
	})}
}

// Get retrieves a copy of the stored value.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of data.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = noExpiry
	}
	c.lru.Set(key, append([]byte(nil), data...), ttl)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.lru.Delete(key)
	return nil
}

// Close stops the sweep and drops every entry.
func (c *MemoryCache) Close() error {
	c.lru.Destroy()
	return nil
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)
