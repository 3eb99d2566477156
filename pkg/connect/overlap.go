package connect

import (
	"math"
	"sort"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/observability"
)

// OverlapGroup is a cluster of preview ends of one source that sit within
// OverlapTolerance of each other.
type OverlapGroup struct {
	SourceNodeID string
	Bucket       [2]int
	Previews     []*canvas.PreviewEdge
}

type bucket [2]int

func (c *Controller) bucketOf(p geom.Point) bucket {
	tol := c.opts.OverlapTolerance
	return bucket{int(math.Round(p.X / tol)), int(math.Round(p.Y / tol))}
}

// CheckPreviewLineOverlap groups the preview ends of a source by rounding
// them onto an OverlapTolerance grid. Ends in neighbouring cells that are
// within the tolerance on both axes join the same group, so a cluster
// straddling a cell border is still found. Only groups of two or more are
// returned, ordered by their first member.
func (c *Controller) CheckPreviewLineOverlap(sourceNodeID string) []OverlapGroup {
	previews := canvas.Previews(c.surface.OutgoingEdges(sourceNodeID))
	if len(previews) < 2 {
		return nil
	}
	c.sortBySlot(sourceNodeID, previews)

	cells := make(map[bucket][]int)
	for i, p := range previews {
		b := c.bucketOf(p.End)
		cells[b] = append(cells[b], i)
	}

	parent := make([]int, len(previews))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	tol := c.opts.OverlapTolerance
	for i, p := range previews {
		b := c.bucketOf(p.End)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, j := range cells[bucket{b[0] + dx, b[1] + dy}] {
					if j == i {
						continue
					}
					q := previews[j].End
					if (dx == 0 && dy == 0) || (math.Abs(p.End.X-q.X) <= tol && math.Abs(p.End.Y-q.Y) <= tol) {
						union(i, j)
					}
				}
			}
		}
	}

	members := make(map[int][]int)
	for i := range previews {
		r := find(i)
		members[r] = append(members[r], i)
	}
	roots := make([]int, 0, len(members))
	for r, m := range members {
		if len(m) >= 2 {
			roots = append(roots, r)
		}
	}
	sort.Ints(roots)

	groups := make([]OverlapGroup, 0, len(roots))
	for _, r := range roots {
		g := OverlapGroup{SourceNodeID: sourceNodeID, Bucket: c.bucketOf(previews[r].End)}
		for _, i := range members[r] {
			g.Previews = append(g.Previews, previews[i])
		}
		groups = append(groups, g)
	}
	return groups
}

// sortBySlot orders previews by branch position, then id.
func (c *Controller) sortBySlot(sourceNodeID string, previews []*canvas.PreviewEdge) {
	order := make(map[string]int)
	if n := c.surface.Node(sourceNodeID); n != nil {
		for _, s := range c.slots(n) {
			order[s.id] = s.index
		}
	}
	sort.SliceStable(previews, func(i, j int) bool {
		oi, oj := order[previews[i].BranchID], order[previews[j].BranchID]
		if oi != oj {
			return oi < oj
		}
		return previews[i].ID < previews[j].ID
	})
}

// RegenerateOverlappingPreviewLines spreads every overlapping group of the
// source horizontally. The group is anchored on the nominal end of its
// first member and members are placed OffsetStep apart, centred on the
// anchor. It returns the number of previews moved.
func (c *Controller) RegenerateOverlappingPreviewLines(sourceNodeID string) (int, error) {
	groups := c.CheckPreviewLineOverlap(sourceNodeID)
	if len(groups) == 0 {
		return 0, nil
	}

	ends := make(map[string]geom.Point)
	for _, p := range canvas.Previews(c.surface.OutgoingEdges(sourceNodeID)) {
		ends[p.ID] = p.End
	}

	moved := 0
	for _, g := range groups {
		for _, p := range g.Previews {
			delete(ends, p.ID)
		}
		first := g.Previews[0]
		anchor, ok := c.NominalEnd(sourceNodeID, first.BranchID)
		if !ok {
			anchor = first.End
		}
		k := len(g.Previews)
		for i, p := range g.Previews {
			next := *p
			offset := (float64(i) - float64(k-1)/2) * c.opts.OffsetStep
			next.End = c.freeEnd(geom.Point{X: anchor.X + offset, Y: anchor.Y}, offset, ends)
			ends[p.ID] = next.End
			if next.End == p.End {
				continue
			}
			if err := c.surface.UpdateEdge(&next); err != nil {
				return moved, errors.Wrap(errors.ErrCodeSurface, err, "move preview %s", p.ID)
			}
			moved++
		}
	}

	observability.Connection().OnPreviewsRepaired(sourceNodeID, len(groups), moved)
	c.opts.Logger.Debug("overlapping previews regenerated", "source", sourceNodeID, "groups", len(groups), "moved", moved)
	return moved, nil
}

// freeEnd shifts want by OffsetStep, away from the anchor, until no end in
// taken lies within OverlapTolerance of it on both axes.
func (c *Controller) freeEnd(want geom.Point, offset float64, taken map[string]geom.Point) geom.Point {
	step := c.opts.OffsetStep
	if offset < 0 {
		step = -step
	}
	for range len(taken) + 1 {
		clash := false
		for _, e := range taken {
			if math.Abs(e.X-want.X) <= c.opts.OverlapTolerance && math.Abs(e.Y-want.Y) <= c.opts.OverlapTolerance {
				clash = true
				break
			}
		}
		if !clash {
			return want
		}
		want.X += step
	}
	return want
}
