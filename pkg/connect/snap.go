package connect

import (
	"math"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/spatial"
)

// Index item data keys.
const (
	dataType      = "type"
	dataDroppable = "droppable"
)

// Snap is a connection target found near the pointer.
type Snap struct {
	NodeID   string
	Port     geom.Point
	Distance float64
}

// SyncNode writes the current bounds of a node into the spatial index. A
// node that no longer exists is dropped from it.
func (c *Controller) SyncNode(nodeID string) error {
	n := c.surface.Node(nodeID)
	if n == nil {
		c.index.RemoveItem(nodeID)
		return nil
	}
	h := c.branches.Handler(n)
	data := map[string]any{
		dataType:      string(n.Type),
		dataDroppable: h.Droppable && !h.Artifact,
	}
	b := n.Bounds()
	if err := c.index.UpdateItem(n.ID, b, data); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "index node %s", n.ID)
	}
	if r := math.Hypot(b.Width/2, b.Height/2); r > c.reach {
		c.reach = r
	}
	return nil
}

// SyncIndex rebuilds the spatial index from the surface.
func (c *Controller) SyncIndex() error {
	c.index.Clear()
	c.reach = 0
	for _, n := range c.surface.Nodes() {
		if err := c.SyncNode(n.ID); err != nil {
			return err
		}
	}
	if c.index.CheckGridResize() {
		c.opts.Logger.Debug("spatial grid resized", "grid", c.index.GridSize(), "items", c.index.Len())
	}
	return nil
}

// FindSnapTarget returns the droppable node whose in port is within
// SnapRadius of pos, or whose bounds contain pos. excludeNodeID, usually
// the source of the dragged line, is never returned. Among several
// candidates the one whose centre is nearest wins.
func (c *Controller) FindSnapTarget(pos geom.Point, excludeNodeID string) (Snap, bool) {
	radius := c.opts.SnapRadius
	accept := func(it spatial.Item) bool {
		if it.ID == excludeNodeID {
			return false
		}
		if ok, _ := it.Data[dataDroppable].(bool); !ok {
			return false
		}
		n := c.surface.Node(it.ID)
		if n == nil {
			return false
		}
		return n.Bounds().Contains(pos) || pos.Distance(n.InPort()) <= radius
	}

	it, ok := c.index.QueryNearest(pos.X, pos.Y, radius+c.reach, accept)
	if !ok {
		return Snap{}, false
	}
	port := c.surface.Node(it.ID).InPort()
	return Snap{NodeID: it.ID, Port: port, Distance: pos.Distance(port)}, true
}
