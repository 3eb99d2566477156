// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Hosts can register hooks at startup
// to receive events about drag gestures, connection edits, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by library packages, so the engine
// packages stay free of any metrics framework.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetDragHooks(&myDragHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run editor
//	}
//
// Engine packages call hooks to emit events:
//
//	observability.Drag().OnDragStart("node", id)
//	// ... gesture ...
//	observability.Drag().OnDragEnd("node", id, elapsed)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Drag Hooks
// =============================================================================

// DragHooks receives events from the drag state machine.
type DragHooks interface {
	// OnDragStart records a gesture that entered the Dragging state.
	OnDragStart(kind, objectID string)

	// OnDragEnd records a gesture that returned to Idle.
	OnDragEnd(kind, objectID string, duration time.Duration)

	// OnDragRejected records a transition that did not apply.
	OnDragRejected(op, reason string)
}

// =============================================================================
// Connection Hooks
// =============================================================================

// ConnectionHooks receives events from the connection controller.
type ConnectionHooks interface {
	// OnConnectionCreated records a committed connection.
	OnConnectionCreated(sourceID, targetID, branchID string)

	// OnConnectionRejected records a rejected connection request by error code.
	OnConnectionRejected(code string)

	// OnPreviewsRepaired records an overlap repair pass on a source node.
	OnPreviewsRepaired(sourceID string, groups, moved int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)

	// OnCacheEvict records an entry dropped for capacity or expiry.
	OnCacheEvict(ctx context.Context, keyType, reason string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopDragHooks is a no-op implementation of DragHooks.
type NoopDragHooks struct{}

func (NoopDragHooks) OnDragStart(string, string)              {}
func (NoopDragHooks) OnDragEnd(string, string, time.Duration) {}
func (NoopDragHooks) OnDragRejected(string, string)           {}

// NoopConnectionHooks is a no-op implementation of ConnectionHooks.
type NoopConnectionHooks struct{}

func (NoopConnectionHooks) OnConnectionCreated(string, string, string) {}
func (NoopConnectionHooks) OnConnectionRejected(string)                {}
func (NoopConnectionHooks) OnPreviewsRepaired(string, int, int)        {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)           {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)          {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)      {}
func (NoopCacheHooks) OnCacheEvict(context.Context, string, string) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	dragHooks       DragHooks       = NoopDragHooks{}
	connectionHooks ConnectionHooks = NoopConnectionHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	hooksMu         sync.RWMutex
)

// SetDragHooks registers custom drag hooks.
// This should be called once at application startup before any editor is created.
func SetDragHooks(h DragHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		dragHooks = h
	}
}

// SetConnectionHooks registers custom connection hooks.
func SetConnectionHooks(h ConnectionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		connectionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Drag returns the registered drag hooks.
func Drag() DragHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return dragHooks
}

// Connection returns the registered connection hooks.
func Connection() ConnectionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return connectionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	dragHooks = NoopDragHooks{}
	connectionHooks = NoopConnectionHooks{}
	cacheHooks = NoopCacheHooks{}
}
