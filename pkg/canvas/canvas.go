// Package canvas defines the workflow graph model shared by the engine and
// the host surface that stores and renders it.
//
// The host owns nodes and edges. The engine reads them through [Surface] and
// commits every mutation back through it, so geometry stays side-effect free
// until it is written.
//
// # Edges
//
// An [Edge] is either a committed [*Connection] between two nodes or a
// dangling [*PreviewEdge] that starts at a node branch and ends at a free
// point. Callers switch on the concrete type:
//
//	switch e := edge.(type) {
//	case *canvas.Connection:
//	    // e.Target is always set
//	case *canvas.PreviewEdge:
//	    // e.End is the dangling end point
//	}
package canvas

import (
	"github.com/matzehuels/flowcanvas/pkg/geom"
)

// NodeType identifies the behaviour of a node.
type NodeType string

// Node types understood by the engine.
const (
	TypeStart         NodeType = "start"
	TypeEnd           NodeType = "end"
	TypeFinish        NodeType = "finish"
	TypeAudienceSplit NodeType = "audience-split"
	TypeCrowdSplit    NodeType = "crowd-split"
	TypeEventSplit    NodeType = "event-split"
	TypeABTest        NodeType = "ab-test"
	TypeSMS           NodeType = "sms"
	TypeEmail         NodeType = "email"
	TypeWechat        NodeType = "wechat"
	TypeAICall        NodeType = "ai-call"
	TypeManualCall    NodeType = "manual-call"
	TypeBenefit       NodeType = "benefit"
	TypeWait          NodeType = "wait"
	TypeTask          NodeType = "task"

	// Artifacts are drawn by the editor itself and never take part in
	// connection logic.
	TypeEndpoint NodeType = "endpoint"
	TypeDragHint NodeType = "drag-hint"
)

// DefaultNodeSize is the size assumed for nodes that report none.
var DefaultNodeSize = geom.Size{Width: 100, Height: 100}

// Node is a workflow step placed on the canvas. Position is the top-left
// corner.
type Node struct {
	ID         string     `toml:"id" json:"id"`
	Type       NodeType   `toml:"type" json:"type"`
	Position   geom.Point `toml:"position" json:"position"`
	Size       geom.Size  `toml:"size" json:"size"`
	Config     *Config    `toml:"config,omitempty" json:"config,omitempty"`
	Configured bool       `toml:"configured" json:"configured"`
}

// Bounds returns the node rectangle, substituting DefaultNodeSize for a zero size.
func (n *Node) Bounds() geom.Rect {
	size := n.Size
	if size.Width == 0 && size.Height == 0 {
		size = DefaultNodeSize
	}
	return geom.RectAt(n.Position, size)
}

// OutPort returns the bottom-centre point where outgoing edges start.
func (n *Node) OutPort() geom.Point {
	b := n.Bounds()
	return geom.Point{X: b.X + b.Width/2, Y: b.Bottom()}
}

// InPort returns the top-centre point where incoming edges end.
func (n *Node) InPort() geom.Point {
	b := n.Bounds()
	return geom.Point{X: b.X + b.Width/2, Y: b.Y}
}

// Config is the business configuration the engine reads to derive branches.
// Only the sections relevant to a node's type are populated.
type Config struct {
	// Audience split
	CrowdLayers []CrowdLayer   `toml:"crowd_layers,omitempty" json:"crowdLayers,omitempty"`
	Unmatch     *UnmatchBranch `toml:"unmatch,omitempty" json:"unmatchBranch,omitempty"`

	// Event split
	EventCondition string `toml:"event_condition,omitempty" json:"eventCondition,omitempty"`
	YesLabel       string `toml:"yes_label,omitempty" json:"yesLabel,omitempty"`
	NoLabel        string `toml:"no_label,omitempty" json:"noLabel,omitempty"`

	// A/B test
	Versions    []Version `toml:"versions,omitempty" json:"versions,omitempty"`
	GroupALabel string    `toml:"group_a_label,omitempty" json:"groupALabel,omitempty"`
	GroupBLabel string    `toml:"group_b_label,omitempty" json:"groupBLabel,omitempty"`
	GroupARatio float64   `toml:"group_a_ratio,omitempty" json:"groupARatio,omitempty"`
	GroupBRatio float64   `toml:"group_b_ratio,omitempty" json:"groupBRatio,omitempty"`

	IsConfigured bool `toml:"is_configured,omitempty" json:"isConfigured,omitempty"`
}

// CrowdLayer is one audience bucket of an audience split.
type CrowdLayer struct {
	ID      string `toml:"id" json:"id"`
	Name    string `toml:"name" json:"name"`
	CrowdID string `toml:"crowd_id,omitempty" json:"crowdId,omitempty"`
	Order   int    `toml:"order,omitempty" json:"order,omitempty"`
}

// UnmatchBranch configures the catch-all branch of an audience split.
type UnmatchBranch struct {
	ID      string `toml:"id,omitempty" json:"id,omitempty"`
	Name    string `toml:"name,omitempty" json:"name,omitempty"`
	CrowdID string `toml:"crowd_id,omitempty" json:"crowdId,omitempty"`
}

// Version is one arm of an A/B test.
type Version struct {
	ID    string  `toml:"id,omitempty" json:"id,omitempty"`
	Name  string  `toml:"name,omitempty" json:"name,omitempty"`
	Ratio float64 `toml:"ratio,omitempty" json:"ratio,omitempty"`
}

// Branch is one labelled output of a node. Branches are derived from the
// node configuration and never stored.
type Branch struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	Order         int     `json:"order"`
	IsDefault     bool    `json:"isDefault,omitempty"`
	SourceCrowdID string  `json:"crowdId,omitempty"`
	Ratio         float64 `json:"ratio,omitempty"`
}

// PortRef names one end of an edge.
type PortRef struct {
	NodeID string `toml:"node" json:"node"`
	Port   string `toml:"port,omitempty" json:"port,omitempty"`
}

// Port names used when a request does not specify one.
const (
	PortOut = "out"
	PortIn  = "in"
)

// Edge is implemented by [*Connection] and [*PreviewEdge].
type Edge interface {
	EdgeID() string
	SourceNodeID() string
	Branch() string
	isEdge()
}

// Connection is a committed edge between two nodes.
type Connection struct {
	ID       string  `toml:"id" json:"id"`
	Source   PortRef `toml:"source" json:"source"`
	Target   PortRef `toml:"target" json:"target"`
	BranchID string  `toml:"branch,omitempty" json:"branchId,omitempty"`
	Label    string  `toml:"label,omitempty" json:"label,omitempty"`
}

func (c *Connection) EdgeID() string       { return c.ID }
func (c *Connection) SourceNodeID() string { return c.Source.NodeID }
func (c *Connection) Branch() string       { return c.BranchID }
func (*Connection) isEdge()                {}

// PreviewEdge is a dangling edge offered from a node branch. It has no
// target node.
type PreviewEdge struct {
	ID       string     `toml:"id" json:"id"`
	Source   PortRef    `toml:"source" json:"source"`
	BranchID string     `toml:"branch,omitempty" json:"branchId,omitempty"`
	Label    string     `toml:"label,omitempty" json:"label,omitempty"`
	End      geom.Point `toml:"end" json:"end"`
}

func (p *PreviewEdge) EdgeID() string       { return p.ID }
func (p *PreviewEdge) SourceNodeID() string { return p.Source.NodeID }
func (p *PreviewEdge) Branch() string       { return p.BranchID }
func (*PreviewEdge) isEdge()                {}

// Connections filters edges down to committed connections.
func Connections(edges []Edge) []*Connection {
	var out []*Connection
	for _, e := range edges {
		if c, ok := e.(*Connection); ok {
			out = append(out, c)
		}
	}
	return out
}

// Previews filters edges down to preview edges.
func Previews(edges []Edge) []*PreviewEdge {
	var out []*PreviewEdge
	for _, e := range edges {
		if p, ok := e.(*PreviewEdge); ok {
			out = append(out, p)
		}
	}
	return out
}
