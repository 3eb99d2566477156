// Package connect manages preview lines and connections on a canvas.
//
// A configured node offers one dangling preview line per free output: one
// per branch for split nodes, a single branch-less one otherwise. Dropping
// a preview on a node commits a [canvas.Connection] and deletes the preview
// for that branch in the same step. Removing a connection brings its
// preview back.
//
// Independent per-branch formulas can land several preview ends on the
// same spot after a node moves. [Controller.CheckPreviewLineOverlap] finds
// such clusters and [Controller.RegenerateOverlappingPreviewLines] fans
// them out again.
package connect

import (
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowcanvas/pkg/branch"
	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/spatial"
)

// Default option values in pixels.
const (
	DefaultOverlapTolerance = 10
	DefaultOffsetStep       = 30
	DefaultPreviewLength    = 120
	DefaultBranchSpacing    = 60
	DefaultMaxBranchWidth   = 300
	DefaultSnapRadius       = 40
)

// Options configures a [Controller].
type Options struct {
	OverlapTolerance float64 `toml:"overlap_tolerance"`
	OffsetStep       float64 `toml:"offset_step"`
	PreviewLength    float64 `toml:"preview_length"`
	BranchSpacing    float64 `toml:"branch_spacing"`
	MaxBranchWidth   float64 `toml:"max_branch_width"`
	SnapRadius       float64 `toml:"snap_radius"`

	// NewID generates edge ids. Nil means uuid.NewString.
	NewID  func() string `toml:"-"`
	Logger *log.Logger   `toml:"-"`
}

// DefaultOptions returns the stock geometry.
func DefaultOptions() Options {
	return Options{
		OverlapTolerance: DefaultOverlapTolerance,
		OffsetStep:       DefaultOffsetStep,
		PreviewLength:    DefaultPreviewLength,
		BranchSpacing:    DefaultBranchSpacing,
		MaxBranchWidth:   DefaultMaxBranchWidth,
		SnapRadius:       DefaultSnapRadius,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.OverlapTolerance <= 0 {
		o.OverlapTolerance = d.OverlapTolerance
	}
	if o.OffsetStep <= 0 {
		o.OffsetStep = d.OffsetStep
	}
	if o.PreviewLength <= 0 {
		o.PreviewLength = d.PreviewLength
	}
	if o.BranchSpacing <= 0 {
		o.BranchSpacing = d.BranchSpacing
	}
	if o.MaxBranchWidth <= 0 {
		o.MaxBranchWidth = d.MaxBranchWidth
	}
	if o.SnapRadius <= 0 {
		o.SnapRadius = d.SnapRadius
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Validate reports unusable geometry.
func (o Options) Validate() error {
	for name, v := range map[string]float64{
		"connect.overlap_tolerance": o.OverlapTolerance,
		"connect.offset_step":       o.OffsetStep,
		"connect.preview_length":    o.PreviewLength,
		"connect.branch_spacing":    o.BranchSpacing,
		"connect.max_branch_width":  o.MaxBranchWidth,
		"connect.snap_radius":       o.SnapRadius,
	} {
		if err := errors.ValidatePositive(name, v); err != nil {
			return err
		}
	}
	if o.OffsetStep < o.OverlapTolerance {
		return errors.New(errors.ErrCodeInvalidConfiguration,
			"connect.offset_step %v must be at least overlap_tolerance %v", o.OffsetStep, o.OverlapTolerance)
	}
	return nil
}

// Controller coordinates branches, previews and connections over a surface.
// It is not safe for concurrent use.
type Controller struct {
	surface  canvas.Surface
	branches *branch.Resolver
	index    *spatial.Index
	opts     Options
	reach    float64
}

// NewController creates a controller. Nil collaborators are replaced by
// defaults.
func NewController(surface canvas.Surface, branches *branch.Resolver, index *spatial.Index, opts Options) *Controller {
	if branches == nil {
		branches = branch.NewResolver(nil, branch.ResolverOptions{})
	}
	if index == nil {
		index = spatial.New(spatial.DefaultOptions())
	}
	return &Controller{
		surface:  surface,
		branches: branches,
		index:    index,
		opts:     opts.withDefaults(),
	}
}

// Surface returns the host surface.
func (c *Controller) Surface() canvas.Surface { return c.surface }

// Branches returns the branch resolver.
func (c *Controller) Branches() *branch.Resolver { return c.branches }

// Index returns the spatial index of node bounds.
func (c *Controller) Index() *spatial.Index { return c.index }

// Options returns the effective options.
func (c *Controller) Options() Options { return c.opts }

// slot is one output of a node: a branch id, or "" for single-output nodes.
type slot struct {
	id    string
	label string
	index int
	count int
}

func (c *Controller) slots(n *canvas.Node) []slot {
	if c.branches.Handler(n).Branching() {
		bs := c.branches.BranchesOf(n)
		out := make([]slot, len(bs))
		for i, b := range bs {
			out[i] = slot{id: b.ID, label: b.Label, index: i, count: len(bs)}
		}
		return out
	}
	return []slot{{index: 0, count: 1}}
}

// occupied reports whether a connection other than excludeEdgeID holds the
// slot of source.
func (c *Controller) occupied(sourceID, slotID, excludeEdgeID string) bool {
	for _, e := range c.surface.OutgoingEdges(sourceID) {
		if conn, ok := e.(*canvas.Connection); ok && conn.ID != excludeEdgeID && conn.BranchID == slotID {
			return true
		}
	}
	return false
}

func (c *Controller) hasPreview(sourceID, slotID string) bool {
	for _, e := range c.surface.OutgoingEdges(sourceID) {
		if p, ok := e.(*canvas.PreviewEdge); ok && p.BranchID == slotID {
			return true
		}
	}
	return false
}

// ShouldCreatePreviewLine reports whether the node has at least one free
// output that should show a preview. Artifacts, terminal nodes, and nodes
// still waiting for configuration never do. The connection excludeEdgeID
// is treated as absent, which lets callers ask before removing it.
func (c *Controller) ShouldCreatePreviewLine(nodeID, excludeEdgeID string) bool {
	n := c.surface.Node(nodeID)
	if !c.branches.Ready(n) {
		return false
	}
	for _, s := range c.slots(n) {
		if !c.occupied(nodeID, s.id, excludeEdgeID) {
			return true
		}
	}
	return false
}

// CreatePreviewLines adds a preview for every free output of the node that
// has none yet and returns the new previews.
func (c *Controller) CreatePreviewLines(nodeID string) ([]*canvas.PreviewEdge, error) {
	if !c.ShouldCreatePreviewLine(nodeID, "") {
		return nil, nil
	}
	n := c.surface.Node(nodeID)

	var created []*canvas.PreviewEdge
	for _, s := range c.slots(n) {
		if c.occupied(nodeID, s.id, "") || c.hasPreview(nodeID, s.id) {
			continue
		}
		p := &canvas.PreviewEdge{
			ID:       c.opts.NewID(),
			Source:   canvas.PortRef{NodeID: nodeID, Port: canvas.PortOut},
			BranchID: s.id,
			Label:    s.label,
			End:      c.nominalEnd(n, s.index, s.count),
		}
		if err := c.surface.AddEdge(p); err != nil {
			return created, errors.Wrap(errors.ErrCodeSurface, err, "add preview for %s/%s", nodeID, s.id)
		}
		created = append(created, p)
	}
	if len(created) > 0 {
		c.opts.Logger.Debug("preview lines created", "node", nodeID, "count", len(created))
	}
	return created, nil
}

// RefreshPreviewLines reconciles previews with the node's current outputs:
// previews for vanished branches, or for a node that no longer qualifies,
// are removed, and missing ones are created.
func (c *Controller) RefreshPreviewLines(nodeID string) (removed []string, created []*canvas.PreviewEdge, err error) {
	n := c.surface.Node(nodeID)
	valid := make(map[string]bool)
	if c.branches.Ready(n) {
		for _, s := range c.slots(n) {
			if !c.occupied(nodeID, s.id, "") {
				valid[s.id] = true
			}
		}
	}
	for _, p := range canvas.Previews(c.surface.OutgoingEdges(nodeID)) {
		if valid[p.BranchID] {
			continue
		}
		if err := c.surface.RemoveEdge(p.ID); err != nil {
			return removed, nil, errors.Wrap(errors.ErrCodeSurface, err, "remove preview %s", p.ID)
		}
		removed = append(removed, p.ID)
	}
	created, err = c.CreatePreviewLines(nodeID)
	return removed, created, err
}

// RemovePreviewLines deletes every preview of the node.
func (c *Controller) RemovePreviewLines(nodeID string) ([]string, error) {
	var removed []string
	for _, p := range canvas.Previews(c.surface.OutgoingEdges(nodeID)) {
		if err := c.surface.RemoveEdge(p.ID); err != nil {
			return removed, errors.Wrap(errors.ErrCodeSurface, err, "remove preview %s", p.ID)
		}
		removed = append(removed, p.ID)
	}
	return removed, nil
}

// NominalEnd returns where the preview of a node output rests when nothing
// has moved it. branchID is "" for single-output nodes.
func (c *Controller) NominalEnd(nodeID, branchID string) (geom.Point, bool) {
	n := c.surface.Node(nodeID)
	if n == nil {
		return geom.Point{}, false
	}
	for _, s := range c.slots(n) {
		if s.id == branchID {
			return c.nominalEnd(n, s.index, s.count), true
		}
	}
	return geom.Point{}, false
}

// nominalEnd fans branch ends out below the out port. The fan is
// count*BranchSpacing wide, capped at MaxBranchWidth.
func (c *Controller) nominalEnd(n *canvas.Node, index, count int) geom.Point {
	out := n.OutPort()
	y := out.Y + c.opts.PreviewLength
	if count <= 1 {
		return geom.Point{X: out.X, Y: y}
	}
	width := math.Min(float64(count)*c.opts.BranchSpacing, c.opts.MaxBranchWidth)
	step := width / float64(count-1)
	return geom.Point{X: out.X - width/2 + float64(index)*step, Y: y}
}

// TranslatePreviews moves every preview end of a node by delta, as when
// the node itself was dragged.
func (c *Controller) TranslatePreviews(nodeID string, delta geom.Point) ([]*canvas.PreviewEdge, error) {
	if delta == (geom.Point{}) {
		return nil, nil
	}
	var moved []*canvas.PreviewEdge
	for _, p := range canvas.Previews(c.surface.OutgoingEdges(nodeID)) {
		next := *p
		next.End = p.End.Add(delta)
		if err := c.surface.UpdateEdge(&next); err != nil {
			return moved, errors.Wrap(errors.ErrCodeSurface, err, "move preview %s", p.ID)
		}
		moved = append(moved, &next)
	}
	return moved, nil
}
