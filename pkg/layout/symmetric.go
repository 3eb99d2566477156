// Package layout positions the nodes of one layer symmetrically about zero
// and assigns nodes to layers.
//
// # Strategies
//
// A layer is a row of items, each either a normal node or an endpoint (a
// virtual anchor used for routing dangling preview edges). A pure layer is
// spread with its kind's base spacing. A mixed layer spreads each kind on
// its own, places the endpoint group to the right of the normal group, and
// then shifts the whole row so the mean x is zero. Each group keeps its
// internal order and spacing.
//
// # Spacing
//
// [SymmetricPositions] computes the offsets for n items:
//
//	n=1   [0]
//	n=2   [-s/2, s/2]
//	n=3   [-s', 0, s']             s'  = max(min*0.8, s*0.8)
//	n=4   [-1.5s'', -0.5s'', ...]  s'' = max(min*0.7, s*0.7)
//	n>=5  evenly spaced by a = clamp(s, min, max/(n-1))
//
// The base spacing s is clamped to [min, max] first. Adjacent offsets are
// never closer than min.
package layout

import "math"

// SymmetricPositions returns n increasing x offsets centred on zero using
// base spacing s. It returns nil for n < 1.
func SymmetricPositions(n int, s float64, opts Options) []float64 {
	opts = opts.withDefaults()
	if n < 1 {
		return nil
	}
	s = clamp(s, opts.MinSpacing, opts.MaxSpacing)
	minGap := opts.MinSpacing

	switch n {
	case 1:
		return []float64{0}
	case 2:
		s = math.Max(s, minGap)
		return []float64{-s / 2, s / 2}
	case 3:
		d := floorAt(math.Max(minGap*0.8, s*0.8), minGap)
		return []float64{-d, 0, d}
	case 4:
		d := floorAt(math.Max(minGap*0.7, s*0.7), minGap)
		return []float64{-1.5 * d, -0.5 * d, 0.5 * d, 1.5 * d}
	}

	// Wide layers compress towards max/(n-1) but never below min.
	a := math.Max(minGap, math.Min(s, opts.MaxSpacing/float64(n-1)))
	start := -a * float64(n-1) / 2
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*a
	}
	return out
}

// floorAt keeps compressed spacing from dropping under the minimum gap.
func floorAt(d, minGap float64) float64 {
	return math.Max(d, minGap)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
