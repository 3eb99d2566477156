package canvas

import (
	"sort"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
)

// Surface is the host graph store the engine reads from and writes to.
//
// Lookups return nil for unknown ids. Mutations return an error when the
// host refuses them; the engine wraps those with ErrCodeSurface.
type Surface interface {
	Node(id string) *Node
	Nodes() []*Node
	Edge(id string) Edge
	Edges() []Edge
	OutgoingEdges(nodeID string) []Edge

	AddEdge(e Edge) error
	RemoveEdge(id string) error
	UpdateEdge(e Edge) error
	MoveNode(id string, pos geom.Point) error
}

// MemorySurface is an in-memory Surface. Iteration follows insertion order.
// It backs the CLI and the tests.
type MemorySurface struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]Edge
	edgeOrder []string
}

// NewMemorySurface creates an empty surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{
		nodes: make(map[string]*Node),
		edges: make(map[string]Edge),
	}
}

// AddNode inserts or replaces a node.
func (s *MemorySurface) AddNode(n *Node) error {
	if err := errors.ValidateID("node", n.ID); err != nil {
		return err
	}
	if _, ok := s.nodes[n.ID]; !ok {
		s.nodeOrder = append(s.nodeOrder, n.ID)
	}
	s.nodes[n.ID] = n
	return nil
}

// RemoveNode deletes a node together with every edge touching it.
func (s *MemorySurface) RemoveNode(id string) error {
	if _, ok := s.nodes[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "node %s not found", id)
	}
	for _, e := range s.Edges() {
		touches := e.SourceNodeID() == id
		if c, ok := e.(*Connection); ok && c.Target.NodeID == id {
			touches = true
		}
		if touches {
			s.removeEdge(e.EdgeID())
		}
	}
	delete(s.nodes, id)
	s.nodeOrder = removeID(s.nodeOrder, id)
	return nil
}

// Node implements Surface.
func (s *MemorySurface) Node(id string) *Node { return s.nodes[id] }

// Nodes implements Surface.
func (s *MemorySurface) Nodes() []*Node {
	out := make([]*Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		out = append(out, s.nodes[id])
	}
	return out
}

// Edge implements Surface.
func (s *MemorySurface) Edge(id string) Edge { return s.edges[id] }

// Edges implements Surface.
func (s *MemorySurface) Edges() []Edge {
	out := make([]Edge, 0, len(s.edgeOrder))
	for _, id := range s.edgeOrder {
		out = append(out, s.edges[id])
	}
	return out
}

// OutgoingEdges implements Surface.
func (s *MemorySurface) OutgoingEdges(nodeID string) []Edge {
	var out []Edge
	for _, id := range s.edgeOrder {
		if e := s.edges[id]; e.SourceNodeID() == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// AddEdge implements Surface. Edge ids must be unique.
func (s *MemorySurface) AddEdge(e Edge) error {
	if err := errors.ValidateID("edge", e.EdgeID()); err != nil {
		return err
	}
	if _, ok := s.edges[e.EdgeID()]; ok {
		return errors.New(errors.ErrCodeInvalidInput, "edge %s already exists", e.EdgeID())
	}
	if s.nodes[e.SourceNodeID()] == nil {
		return errors.New(errors.ErrCodeMissingSource, "edge %s source %s not found", e.EdgeID(), e.SourceNodeID())
	}
	if c, ok := e.(*Connection); ok && s.nodes[c.Target.NodeID] == nil {
		return errors.New(errors.ErrCodeMissingTarget, "edge %s target %s not found", e.EdgeID(), c.Target.NodeID)
	}
	s.edges[e.EdgeID()] = e
	s.edgeOrder = append(s.edgeOrder, e.EdgeID())
	return nil
}

// RemoveEdge implements Surface.
func (s *MemorySurface) RemoveEdge(id string) error {
	if _, ok := s.edges[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "edge %s not found", id)
	}
	s.removeEdge(id)
	return nil
}

func (s *MemorySurface) removeEdge(id string) {
	delete(s.edges, id)
	s.edgeOrder = removeID(s.edgeOrder, id)
}

// UpdateEdge implements Surface. The edge keeps its position in the order.
func (s *MemorySurface) UpdateEdge(e Edge) error {
	if _, ok := s.edges[e.EdgeID()]; !ok {
		return errors.New(errors.ErrCodeNotFound, "edge %s not found", e.EdgeID())
	}
	s.edges[e.EdgeID()] = e
	return nil
}

// MoveNode implements Surface.
func (s *MemorySurface) MoveNode(id string, pos geom.Point) error {
	n, ok := s.nodes[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %s not found", id)
	}
	n.Position = pos
	return nil
}

// NodeIDs returns the sorted node ids.
func (s *MemorySurface) NodeIDs() []string {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Ensure MemorySurface implements Surface.
var _ Surface = (*MemorySurface)(nil)
