package editor

import (
	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/errors"
)

func previewIDs(ps []*canvas.PreviewEdge) []string {
	if len(ps) == 0 {
		return nil
	}
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}

func (e *Editor) nodeAdded(nodeID string) ([]Command, error) {
	if e.surface.Node(nodeID) == nil {
		e.logger.Warn("added node not on surface", "node", nodeID)
		return nil, nil
	}
	if err := e.ctrl.SyncNode(nodeID); err != nil {
		return nil, err
	}
	created, err := e.ctrl.CreatePreviewLines(nodeID)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, nil
	}
	return []Command{PreviewLinesChanged{NodeID: nodeID, Created: previewIDs(created)}}, nil
}

// nodeRemoved runs after the host deleted the node and its edges. Nodes
// that lost a connection into it get their preview back.
func (e *Editor) nodeRemoved(nodeID string) ([]Command, error) {
	if err := e.ctrl.SyncNode(nodeID); err != nil {
		return nil, err
	}
	e.branches.Invalidate(nodeID)

	var cmds []Command
	s := e.drag.Session()
	if e.drag.Active() && (s.Object.ID == nodeID || s.Object.SourceNodeID == nodeID || s.Target == nodeID) {
		e.drag.Reset()
		cmds = append(cmds, ClearHighlight{})
	}
	if e.menuNode == nodeID {
		cmds = append(cmds, e.hideMenuNow()...)
	}

	for _, n := range e.surface.Nodes() {
		created, err := e.ctrl.CreatePreviewLines(n.ID)
		if err != nil {
			return cmds, err
		}
		if len(created) > 0 {
			cmds = append(cmds, PreviewLinesChanged{NodeID: n.ID, Created: previewIDs(created)})
		}
	}
	return cmds, nil
}

// nodeConfigured reconciles previews with a node's new configuration.
func (e *Editor) nodeConfigured(nodeID string) ([]Command, error) {
	if e.surface.Node(nodeID) == nil {
		return nil, nil
	}
	e.branches.Invalidate(nodeID)
	if err := e.ctrl.SyncNode(nodeID); err != nil {
		return nil, err
	}
	removed, created, err := e.ctrl.RefreshPreviewLines(nodeID)
	if err != nil {
		return nil, err
	}
	moved, err := e.ctrl.RegenerateOverlappingPreviewLines(nodeID)
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 && len(created) == 0 && moved == 0 {
		return nil, nil
	}
	return []Command{PreviewLinesChanged{
		NodeID:  nodeID,
		Created: previewIDs(created),
		Removed: removed,
		Moved:   moved,
	}}, nil
}

func (e *Editor) connectionRemoved(edgeID string) ([]Command, error) {
	conn, ok := e.surface.Edge(edgeID).(*canvas.Connection)
	if !ok {
		e.logger.Warn("remove of unknown connection", "edge", edgeID)
		return nil, nil
	}
	p, err := e.ctrl.RemoveConnection(edgeID)
	if err != nil {
		if errors.ClassOf(err) == errors.ClassInternal {
			return nil, err
		}
		return nil, nil
	}
	cmds := []Command{ConnectionRemoved{EdgeID: edgeID}}
	if p != nil {
		cmds = append(cmds, PreviewLinesChanged{NodeID: conn.Source.NodeID, Created: []string{p.ID}})
	}
	return cmds, nil
}
