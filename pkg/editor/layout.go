package editor

import (
	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/layout"
)

// LayoutAll lays the whole surface out in layers anchored on the current
// root layer and commits the new positions. Preview ends are placed as
// virtual endpoints.
func (e *Editor) LayoutAll() (layout.Plan, []Command, error) {
	if e.drag.Active() {
		e.logger.Warn("layout skipped during drag")
		return layout.Plan{}, nil, nil
	}
	plan := e.distributor.LayoutSurface(e.surface, layout.Origin(e.surface))
	cmds, err := e.Apply(plan)
	return plan, cmds, err
}

// Apply commits a computed plan, moving nodes so their centres match and
// setting preview ends.
func (e *Editor) Apply(plan layout.Plan) ([]Command, error) {
	var cmds []Command
	for _, pos := range plan.Positions {
		if pos.Virtual {
			p, ok := e.surface.Edge(pos.ID).(*canvas.PreviewEdge)
			if !ok || p.End == pos.Center {
				continue
			}
			next := *p
			next.End = pos.Center
			if err := e.surface.UpdateEdge(&next); err != nil {
				return cmds, errors.Wrap(errors.ErrCodeSurface, err, "move preview %s", p.ID)
			}
			cmds = append(cmds, PreviewMoved{EdgeID: p.ID, End: pos.Center})
			continue
		}
		more, err := e.centreNode(pos.ID, pos.Center)
		cmds = append(cmds, more...)
		if err != nil {
			return cmds, err
		}
	}
	e.index.CheckGridResize()
	return cmds, nil
}

// LayoutLayer spreads the given nodes as one layer around the mean of
// their current centres. Vertical positions are kept.
func (e *Editor) LayoutLayer(nodeIDs []string) ([]Command, error) {
	items := make([]layout.Item, 0, len(nodeIDs))
	var sum float64
	for _, id := range nodeIDs {
		n := e.surface.Node(id)
		if n == nil {
			return nil, errors.New(errors.ErrCodeNotFound, "node %s not found", id)
		}
		kind := layout.KindNormal
		if n.Type == canvas.TypeEndpoint {
			kind = layout.KindEndpoint
		}
		items = append(items, layout.Item{ID: id, Kind: kind})
		sum += n.Bounds().Center().X
	}
	if len(items) == 0 {
		return nil, nil
	}
	mid := sum / float64(len(items))

	res := e.distributor.Distribute(items)
	if report := e.distributor.Validate(res); !report.OK() {
		e.logger.Warn("layer layout invalid", "errors", report.Errors)
	}

	var cmds []Command
	for _, pl := range res.Placements {
		n := e.surface.Node(pl.ID)
		more, err := e.centreNode(pl.ID, geom.Point{X: mid + pl.X, Y: n.Bounds().Center().Y})
		cmds = append(cmds, more...)
		if err != nil {
			return cmds, err
		}
	}
	return cmds, nil
}

// centreNode moves a node so its centre lands on c, dragging its previews
// along.
func (e *Editor) centreNode(id string, c geom.Point) ([]Command, error) {
	n := e.surface.Node(id)
	if n == nil {
		return nil, nil
	}
	cur := n.Bounds().Center()
	if cur == c {
		return nil, nil
	}
	delta := c.Sub(cur)
	pos := n.Position.Add(delta)
	if err := e.surface.MoveNode(id, pos); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSurface, err, "move node %s", id)
	}
	if err := e.ctrl.SyncNode(id); err != nil {
		return nil, err
	}
	cmds := []Command{MoveNode{NodeID: id, Position: pos}}
	moved, err := e.ctrl.TranslatePreviews(id, delta)
	for _, p := range moved {
		cmds = append(cmds, PreviewMoved{EdgeID: p.ID, End: p.End})
	}
	return cmds, err
}
