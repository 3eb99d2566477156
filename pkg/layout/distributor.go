package layout

import (
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/flowcanvas/pkg/cache"
)

// Kind classifies a layer item.
type Kind int

const (
	// KindNormal is an ordinary task or split node.
	KindNormal Kind = iota
	// KindEndpoint is a virtual routing anchor.
	KindEndpoint
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindEndpoint {
		return "endpoint"
	}
	return "normal"
}

// Strategy names how a layer was distributed.
type Strategy string

const (
	StrategyEmpty        Strategy = "empty"
	StrategyPureNormal   Strategy = "pure-normal"
	StrategyPureEndpoint Strategy = "pure-endpoint"
	StrategyMixed        Strategy = "mixed"
)

// Item is one member of a layer.
type Item struct {
	ID   string
	Kind Kind
}

// Placement is the computed centre offset of one item.
type Placement struct {
	ID   string
	Kind Kind
	X    float64
}

// Result is the outcome of distributing one layer. Placements are ordered
// left to right.
type Result struct {
	Strategy   Strategy
	Placements []Placement
}

// Xs returns the offsets in placement order.
func (r Result) Xs() []float64 {
	xs := make([]float64, len(r.Placements))
	for i, p := range r.Placements {
		xs[i] = p.X
	}
	return xs
}

// X returns the offset of the item with the given id.
func (r Result) X(id string) (float64, bool) {
	for _, p := range r.Placements {
		if p.ID == id {
			return p.X, true
		}
	}
	return 0, false
}

type positionsKey struct {
	n       int
	spacing float64
}

// Distributor spreads layers. Offset sets are memoised per (count, spacing).
type Distributor struct {
	opts Options
	memo *cache.LRU[positionsKey, []float64]
}

// NewDistributor creates a distributor with its own position memo.
func NewDistributor(opts Options) *Distributor {
	return &Distributor{
		opts: opts.withDefaults(),
		memo: cache.NewLRU[positionsKey, []float64](cache.LRUOptions{
			MaxSize: 256,
			Name:    "positions",
		}),
	}
}

// Options returns the effective options.
func (d *Distributor) Options() Options { return d.opts }

func (d *Distributor) positions(n int, spacing float64) []float64 {
	xs, _ := d.memo.GetOrSet(positionsKey{n, spacing}, time.Hour, func() ([]float64, error) {
		return SymmetricPositions(n, spacing, d.opts), nil
	})
	return append([]float64(nil), xs...)
}

// Distribute computes centre offsets for a layer. An empty layer yields an
// empty result with StrategyEmpty.
func (d *Distributor) Distribute(items []Item) Result {
	var normal, endpoint []Item
	for _, it := range items {
		if it.Kind == KindEndpoint {
			endpoint = append(endpoint, it)
		} else {
			normal = append(normal, it)
		}
	}

	switch {
	case len(items) == 0:
		d.opts.Logger.Debug("empty layer")
		return Result{Strategy: StrategyEmpty}
	case len(endpoint) == 0:
		return Result{Strategy: StrategyPureNormal, Placements: place(normal, d.positions(len(normal), d.opts.PreferredSpacing))}
	case len(normal) == 0:
		return Result{Strategy: StrategyPureEndpoint, Placements: place(endpoint, d.positions(len(endpoint), d.opts.EndpointSpacing))}
	}

	nx := d.positions(len(normal), d.opts.PreferredSpacing)
	ex := d.positions(len(endpoint), d.opts.EndpointSpacing)

	gap := clamp(math.Max(d.opts.MinSpacing, d.opts.EndpointSpacing), d.opts.MinSpacing, d.opts.MaxSpacing)
	shift := nx[len(nx)-1] + gap - ex[0]
	for i := range ex {
		ex[i] += shift
	}

	placements := append(place(normal, nx), place(endpoint, ex)...)
	mean := 0.0
	for _, p := range placements {
		mean += p.X
	}
	mean /= float64(len(placements))
	for i := range placements {
		placements[i].X -= mean
	}

	d.opts.Logger.Debug("mixed layer distributed",
		"normal", len(normal), "endpoint", len(endpoint), "shift", -mean)
	return Result{Strategy: StrategyMixed, Placements: placements}
}

func place(items []Item, xs []float64) []Placement {
	out := make([]Placement, len(items))
	for i, it := range items {
		out[i] = Placement{ID: it.ID, Kind: it.Kind, X: xs[i]}
	}
	return out
}

// Destroy releases the memo.
func (d *Distributor) Destroy() {
	d.memo.Destroy()
}

// =============================================================================
// Validation
// =============================================================================

const epsilon = 1e-9

// Report lists problems found in a row of offsets.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether there are no errors. Warnings are allowed.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// ValidateRow checks a left-to-right row of offsets: gaps under MinSpacing and
// non-increasing pairs are errors; gaps over MaxSpacing and a mean further
// than CenterTolerance from zero are warnings.
func (o Options) ValidateRow(xs []float64) Report {
	o = o.withDefaults()
	var r Report
	if len(xs) == 0 {
		return r
	}
	sum := xs[0]
	for i := 1; i < len(xs); i++ {
		gap := xs[i] - xs[i-1]
		switch {
		case gap <= 0:
			r.Errors = append(r.Errors, fmt.Sprintf("positions %d and %d are not increasing (%.2f, %.2f)", i-1, i, xs[i-1], xs[i]))
		case gap < o.MinSpacing-epsilon:
			r.Errors = append(r.Errors, fmt.Sprintf("gap %d-%d is %.2f, below minimum %.2f", i-1, i, gap, o.MinSpacing))
		case gap > o.MaxSpacing+epsilon:
			r.Warnings = append(r.Warnings, fmt.Sprintf("gap %d-%d is %.2f, above maximum %.2f", i-1, i, gap, o.MaxSpacing))
		}
		sum += xs[i]
	}
	if mean := sum / float64(len(xs)); math.Abs(mean) > o.CenterTolerance {
		r.Warnings = append(r.Warnings, fmt.Sprintf("row is off centre by %.2f", mean))
	}
	return r
}

// Validate checks a distributed layer with the distributor options.
func (d *Distributor) Validate(res Result) Report {
	return d.opts.ValidateRow(res.Xs())
}
