package cache

// ScopedKeyer wraps a Keyer with a prefix so several editors can share one
// backend without key collisions.
//
// Example usage:
//
//	// Per-workspace layout snapshots in a shared Redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ws:marketing:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// BranchKey generates a prefixed branch key.
func (k *ScopedKeyer) BranchKey(nodeID, nodeType, configHash string) string {
	return k.prefix + k.inner.BranchKey(nodeID, nodeType, configHash)
}

// LayoutKey generates a prefixed layout snapshot key.
func (k *ScopedKeyer) LayoutKey(sceneHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(sceneHash, opts)
}
