package layout

import (
	"sort"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/geom"
)

// LayerItem is a member of an assigned layer. Virtual items stand for the
// dangling end of a preview edge; their ID is the edge id.
type LayerItem struct {
	Item
	Layer    int
	Virtual  bool
	SourceID string
	cur      float64
	seq      int
}

// Layering is the layer assignment of a whole surface.
type Layering struct {
	Layers [][]LayerItem
}

// Depth returns the number of layers.
func (l Layering) Depth() int { return len(l.Layers) }

// AssignLayers places every node on the layer of its longest path from a
// root, following connections. The dangling end of each preview edge
// becomes a virtual endpoint one layer below its source. Drag hints are
// skipped. Within a layer items keep their current left-to-right order.
//
// Nodes on a cycle keep the deepest layer reached before the cycle was
// detected.
func AssignLayers(s canvas.Surface) Layering {
	nodes := s.Nodes()
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	indeg := make([]int, len(nodes))
	succ := make([][]int, len(nodes))
	conns := canvas.Connections(s.Edges())
	for _, c := range conns {
		from, ok1 := index[c.Source.NodeID]
		to, ok2 := index[c.Target.NodeID]
		if !ok1 || !ok2 || from == to {
			continue
		}
		succ[from] = append(succ[from], to)
		indeg[to]++
	}

	depth := make([]int, len(nodes))
	queue := make([]int, 0, len(nodes))
	for i := range nodes {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range succ[u] {
			if depth[u]+1 > depth[v] {
				depth[v] = depth[u] + 1
			}
			if indeg[v]--; indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	var items []LayerItem
	for i, n := range nodes {
		if n.Type == canvas.TypeDragHint {
			continue
		}
		kind := KindNormal
		if n.Type == canvas.TypeEndpoint {
			kind = KindEndpoint
		}
		items = append(items, LayerItem{
			Item:  Item{ID: n.ID, Kind: kind},
			Layer: depth[i],
			cur:   n.Bounds().Center().X,
			seq:   len(items),
		})
	}
	for _, p := range canvas.Previews(s.Edges()) {
		src, ok := index[p.Source.NodeID]
		if !ok {
			continue
		}
		items = append(items, LayerItem{
			Item:     Item{ID: p.ID, Kind: KindEndpoint},
			Layer:    depth[src] + 1,
			Virtual:  true,
			SourceID: p.Source.NodeID,
			cur:      p.End.X,
			seq:      len(items),
		})
	}

	var l Layering
	for _, it := range items {
		for len(l.Layers) <= it.Layer {
			l.Layers = append(l.Layers, nil)
		}
		l.Layers[it.Layer] = append(l.Layers[it.Layer], it)
	}
	for _, layer := range l.Layers {
		sort.SliceStable(layer, func(i, j int) bool {
			if layer[i].cur != layer[j].cur {
				return layer[i].cur < layer[j].cur
			}
			return layer[i].seq < layer[j].seq
		})
	}
	return l
}

// Position is a computed centre for a node or a virtual endpoint.
type Position struct {
	ID      string
	Kind    Kind
	Layer   int
	Virtual bool
	Center  geom.Point
}

// Plan is a full-surface layout.
type Plan struct {
	Positions  []Position
	Strategies []Strategy // one per layer
}

// Lookup returns the position computed for id.
func (p Plan) Lookup(id string) (Position, bool) {
	for _, pos := range p.Positions {
		if pos.ID == id {
			return pos, true
		}
	}
	return Position{}, false
}

// LayoutSurface assigns layers and distributes each one around origin.X.
// Layer k is placed at origin.Y + k*LayerHeight.
func (d *Distributor) LayoutSurface(s canvas.Surface, origin geom.Point) Plan {
	layering := AssignLayers(s)
	var plan Plan
	for k, layer := range layering.Layers {
		items := make([]Item, len(layer))
		meta := make(map[string]LayerItem, len(layer))
		for i, it := range layer {
			items[i] = it.Item
			meta[it.ID] = it
		}
		res := d.Distribute(items)
		plan.Strategies = append(plan.Strategies, res.Strategy)
		for _, pl := range res.Placements {
			it := meta[pl.ID]
			plan.Positions = append(plan.Positions, Position{
				ID:      pl.ID,
				Kind:    pl.Kind,
				Layer:   k,
				Virtual: it.Virtual,
				Center:  geom.Point{X: origin.X + pl.X, Y: origin.Y + float64(k)*d.opts.LayerHeight},
			})
		}
	}
	d.opts.Logger.Debug("surface laid out", "layers", len(plan.Strategies), "positions", len(plan.Positions))
	return plan
}

// Origin returns the mean centre of the root layer, or the zero point for
// an empty surface. Layouts anchored here keep the roots where they are.
func Origin(s canvas.Surface) geom.Point {
	layering := AssignLayers(s)
	if layering.Depth() == 0 {
		return geom.Point{}
	}
	var sum geom.Point
	count := 0
	for _, it := range layering.Layers[0] {
		n := s.Node(it.ID)
		if n == nil {
			continue
		}
		sum = sum.Add(n.Bounds().Center())
		count++
	}
	if count == 0 {
		return geom.Point{}
	}
	return geom.Point{X: sum.X / float64(count), Y: sum.Y / float64(count)}
}
