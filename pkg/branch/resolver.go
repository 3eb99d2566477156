package branch

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/canvas"
)

// ResolverOptions configures a [Resolver].
type ResolverOptions struct {
	// Cache memoises branch lists. Nil creates a private cache.
	Cache *cache.LRU[string, []canvas.Branch]

	// TTL bounds how long a derived list is reused.
	TTL time.Duration

	Keyer  cache.Keyer
	Logger *log.Logger
}

// Resolver answers branch and eligibility questions for nodes.
type Resolver struct {
	registry *Registry
	cache    *cache.LRU[string, []canvas.Branch]
	ownCache bool
	ttl      time.Duration
	keyer    cache.Keyer
	keys     map[string]string
	logger   *log.Logger
}

// NewResolver creates a resolver over registry. A nil registry uses
// DefaultRegistry.
func NewResolver(registry *Registry, opts ResolverOptions) *Resolver {
	if registry == nil {
		registry = DefaultRegistry()
	}
	r := &Resolver{
		registry: registry,
		cache:    opts.Cache,
		ttl:      opts.TTL,
		keyer:    opts.Keyer,
		keys:     make(map[string]string),
		logger:   opts.Logger,
	}
	if r.cache == nil {
		r.cache = cache.NewLRU[string, []canvas.Branch](cache.LRUOptions{Name: "branches"})
		r.ownCache = true
	}
	if r.keyer == nil {
		r.keyer = cache.NewDefaultKeyer()
	}
	if r.logger == nil {
		r.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return r
}

// Registry returns the handler table.
func (r *Resolver) Registry() *Registry { return r.registry }

// Handler returns the handler for the node type.
func (r *Resolver) Handler(n *canvas.Node) Handler {
	return r.registry.Lookup(n.Type)
}

// Ready reports whether a node may offer outputs: it is not an artifact,
// not terminal, and configured when its type requires it.
func (r *Resolver) Ready(n *canvas.Node) bool {
	if n == nil {
		return false
	}
	h := r.Handler(n)
	if h.Artifact || h.Terminal {
		return false
	}
	return !h.RequiresConfig || n.Configured
}

// BranchesOf returns the branches of a node. Single-output and unconfigured
// nodes return nil. The result is shared and must not be modified.
func (r *Resolver) BranchesOf(n *canvas.Node) []canvas.Branch {
	if n == nil {
		return nil
	}
	h := r.Handler(n)
	if !h.Branching() || h.Artifact || h.Terminal {
		return nil
	}
	if h.RequiresConfig && n.Config == nil {
		return nil
	}

	key := r.keyer.BranchKey(n.ID, string(n.Type), cache.HashValue(n.Config))
	if prev, ok := r.keys[n.ID]; ok && prev != key {
		// Configuration changed; drop the stale list right away.
		r.cache.Delete(prev)
	}
	r.keys[n.ID] = key

	branches, _ := r.cache.GetOrSet(key, r.ttl, func() ([]canvas.Branch, error) {
		b := h.Branches(n.Config)
		r.logger.Debug("derived branches", "node", n.ID, "type", n.Type, "count", len(b))
		return b, nil
	})
	return branches
}

// HasBranch reports whether the node offers a branch with the given id.
func (r *Resolver) HasBranch(n *canvas.Node, branchID string) bool {
	for _, b := range r.BranchesOf(n) {
		if b.ID == branchID {
			return true
		}
	}
	return false
}

// Invalidate forgets the memoised branches of a node.
func (r *Resolver) Invalidate(nodeID string) {
	if key, ok := r.keys[nodeID]; ok {
		r.cache.Delete(key)
		delete(r.keys, nodeID)
	}
}

// Destroy releases the cache if the resolver created it.
func (r *Resolver) Destroy() {
	if r.ownCache {
		r.cache.Destroy()
	}
	r.keys = make(map[string]string)
}
