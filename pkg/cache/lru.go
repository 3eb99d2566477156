package cache

import (
	"context"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/matzehuels/flowcanvas/pkg/observability"
)

// Defaults for [LRUOptions].
const (
	DefaultMaxSize         = 1000
	DefaultTTL             = 5 * time.Minute
	DefaultCleanupInterval = time.Minute
)

// LRUOptions configures an [LRU].
type LRUOptions struct {
	// MaxSize bounds the number of live entries. Zero means DefaultMaxSize.
	MaxSize int `toml:"max_size"`

	// DefaultTTL applies when Set is called with a ttl of zero or less.
	// Zero means DefaultTTL.
	DefaultTTL time.Duration `toml:"-"`

	// CleanupInterval is the period of the background expiry sweep.
	// Zero means DefaultCleanupInterval; a negative value disables the sweep.
	CleanupInterval time.Duration `toml:"-"`

	// Name labels the cache in hooks and logs ("branches", "positions").
	Name string `toml:"-"`

	// Clock returns the current time. Nil means time.Now.
	Clock func() time.Time `toml:"-"`
}

func (o LRUOptions) withDefaults() LRUOptions {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = DefaultTTL
	}
	if o.CleanupInterval == 0 {
		o.CleanupInterval = DefaultCleanupInterval
	}
	if o.Name == "" {
		o.Name = "lru"
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Size        int
	MaxSize     int
	Hits        uint64
	Misses      uint64
	Evictions   uint64 // capacity evictions only
	Expirations uint64 // entries dropped because their ttl elapsed
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type lruEntry[V any] struct {
	value       V
	createdAt   time.Time
	ttl         time.Duration
	expiresAt   time.Time
	accessCount int
	lastAccess  time.Time
}

func (e *lruEntry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// LRU is a typed cache with per-entry expiry and least-recently-used eviction.
//
// All methods are safe for concurrent use. A background goroutine sweeps
// expired entries every CleanupInterval until [LRU.Destroy] is called.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	opts     LRUOptions
	recency  *lru.Cache
	index    map[K]*lruEntry[V]
	stats    Stats
	removing bool
	closed   bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewLRU creates a cache and starts its expiry sweep.
func NewLRU[K comparable, V any](opts LRUOptions) *LRU[K, V] {
	opts = opts.withDefaults()
	l := &LRU[K, V]{
		opts:  opts,
		index: make(map[K]*lruEntry[V]),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	l.recency = lru.New(opts.MaxSize)
	l.recency.OnEvicted = l.onEvicted

	if opts.CleanupInterval > 0 {
		go l.sweepLoop(opts.CleanupInterval)
	} else {
		close(l.done)
	}
	return l
}

// onEvicted runs under l.mu for every entry leaving the recency list.
func (l *LRU[K, V]) onEvicted(key lru.Key, _ any) {
	k := key.(K)
	delete(l.index, k)
	if !l.removing {
		l.stats.Evictions++
		observability.Cache().OnCacheEvict(context.Background(), l.opts.Name, "capacity")
	}
}

// Set stores value under key. A ttl of zero or less uses DefaultTTL.
func (l *LRU[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = l.opts.DefaultTTL
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	now := l.opts.Clock()
	e := &lruEntry[V]{
		value:      value,
		createdAt:  now,
		ttl:        ttl,
		expiresAt:  now.Add(ttl),
		lastAccess: now,
	}
	l.index[key] = e
	l.recency.Add(key, e)
	observability.Cache().OnCacheSet(context.Background(), l.opts.Name, 1)
}

// Get returns the value for key. Expired entries are removed and reported
// as a miss.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getLocked(key)
}

func (l *LRU[K, V]) getLocked(key K) (V, bool) {
	var zero V
	if l.closed {
		return zero, false
	}

	e, ok := l.index[key]
	if !ok {
		l.stats.Misses++
		observability.Cache().OnCacheMiss(context.Background(), l.opts.Name)
		return zero, false
	}

	now := l.opts.Clock()
	if e.expired(now) {
		l.removeLocked(key)
		l.stats.Expirations++
		l.stats.Misses++
		observability.Cache().OnCacheEvict(context.Background(), l.opts.Name, "expired")
		observability.Cache().OnCacheMiss(context.Background(), l.opts.Name)
		return zero, false
	}

	l.recency.Get(key)
	e.accessCount++
	e.lastAccess = now
	l.stats.Hits++
	observability.Cache().OnCacheHit(context.Background(), l.opts.Name)
	return e.value, true
}

// GetOrSet returns the cached value for key, or calls factory, stores its
// result with ttl and returns it. A factory error is returned unchanged and
// nothing is stored.
func (l *LRU[K, V]) GetOrSet(key K, ttl time.Duration, factory func() (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := factory()
	if err != nil {
		var zero V
		return zero, err
	}
	l.Set(key, v, ttl)
	return v, nil
}

// Delete removes key and reports whether it was present.
func (l *LRU[K, V]) Delete(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.index[key]; !ok {
		return false
	}
	l.removeLocked(key)
	return true
}

func (l *LRU[K, V]) removeLocked(key K) {
	l.removing = true
	l.recency.Remove(key)
	l.removing = false
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (l *LRU[K, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.index)
}

// Stats returns a snapshot of the counters.
func (l *LRU[K, V]) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.stats
	s.Size = len(l.index)
	s.MaxSize = l.opts.MaxSize
	return s
}

// Sweep removes every expired entry and returns how many were dropped.
func (l *LRU[K, V]) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.opts.Clock()
	removed := 0
	for k, e := range l.index {
		if e.expired(now) {
			l.removeLocked(k)
			removed++
		}
	}
	l.stats.Expirations += uint64(removed)
	return removed
}

// Clear drops all entries and keeps the counters.
func (l *LRU[K, V]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removing = true
	l.recency.Clear()
	l.removing = false
	l.index = make(map[K]*lruEntry[V])
}

// Destroy stops the sweep and drops all entries. Later calls are no-ops and
// the cache behaves as permanently empty.
func (l *LRU[K, V]) Destroy() {
	l.stopOnce.Do(func() {
		close(l.stop)
		<-l.done
		l.Clear()
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
	})
}

func (l *LRU[K, V]) sweepLoop(every time.Duration) {
	defer close(l.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
