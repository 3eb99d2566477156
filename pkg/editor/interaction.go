package editor

import (
	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/connect"
	"github.com/matzehuels/flowcanvas/pkg/drag"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
)

func (e *Editor) startNodeDrag(ev Event) []Command {
	n := e.surface.Node(ev.NodeID)
	if n == nil {
		e.logger.Warn("drag of unknown node", "node", ev.NodeID)
		return nil
	}
	if !e.drag.StartDrag(drag.KindNode, drag.Object{ID: n.ID}) {
		return nil
	}
	e.drag.SetDragStartPosition(ev.Position)
	e.nodeOrigin = n.Position
	return e.hideMenuNow()
}

func (e *Editor) startPreviewDrag(ev Event) []Command {
	p, ok := e.surface.Edge(ev.EdgeID).(*canvas.PreviewEdge)
	if !ok {
		e.logger.Warn("drag of unknown preview", "edge", ev.EdgeID)
		return nil
	}
	obj := drag.Object{ID: p.ID, SourceNodeID: p.Source.NodeID, BranchID: p.BranchID}
	if !e.drag.StartDrag(drag.KindPreviewLine, obj) {
		return nil
	}
	e.drag.SetDragStartPosition(ev.Position)
	e.lineEnd = p.End
	return e.hideMenuNow()
}

func (e *Editor) startBranchDrag(ev Event) []Command {
	c, ok := e.surface.Edge(ev.EdgeID).(*canvas.Connection)
	if !ok {
		e.logger.Warn("drag of unknown connection", "edge", ev.EdgeID)
		return nil
	}
	obj := drag.Object{ID: c.ID, SourceNodeID: c.Source.NodeID, BranchID: c.BranchID}
	if !e.drag.StartDrag(drag.KindBranchLine, obj) {
		return nil
	}
	e.drag.SetDragStartPosition(ev.Position)
	e.lineEnd = geom.Point{}
	if t := e.surface.Node(c.Target.NodeID); t != nil {
		e.lineEnd = t.InPort()
	}
	return e.hideMenuNow()
}

func (e *Editor) pointerMove(pos geom.Point) []Command {
	if !e.drag.Active() {
		return nil
	}
	e.drag.UpdateDragPosition(pos)
	s := e.drag.Session()
	if s.Kind == drag.KindNode {
		return []Command{MoveNode{NodeID: s.Object.ID, Position: e.nodeOrigin.Add(pos.Sub(*s.StartPosition))}}
	}

	cmds := []Command{PreviewMoved{EdgeID: s.Object.ID, End: pos}}
	snap, found := e.ctrl.FindSnapTarget(pos, s.Object.SourceNodeID)
	switch {
	case found && s.State == drag.Snapping && s.Target == snap.NodeID:
	case found:
		if s.State == drag.Snapping {
			e.drag.StopSnapping()
		}
		e.drag.StartSnapping(snap.NodeID, map[string]any{"port": snap.Port, "distance": snap.Distance})
		cmds = append(cmds, HighlightTarget{NodeID: snap.NodeID, Port: snap.Port})
	case s.State == drag.Snapping:
		e.drag.StopSnapping()
		cmds = append(cmds, ClearHighlight{})
	}
	return cmds
}

func (e *Editor) pointerUp(pos geom.Point) ([]Command, error) {
	if !e.drag.Active() {
		return nil, nil
	}
	e.drag.UpdateDragPosition(pos)
	out, ok := e.drag.EndDrag(drag.ResultDropped)
	if !ok {
		return nil, nil
	}

	var cmds []Command
	if out.Target != "" {
		cmds = append(cmds, ClearHighlight{})
	}
	switch out.Kind {
	case drag.KindNode:
		more, err := e.dropNode(out)
		return append(cmds, more...), err
	case drag.KindPreviewLine:
		if out.Target == "" {
			return append(cmds, PreviewMoved{EdgeID: out.Object.ID, End: e.lineEnd}), nil
		}
		res, err := e.ctrl.CreateConnection(connect.Request{
			SourceNodeID: out.Object.SourceNodeID,
			TargetNodeID: out.Target,
			BranchID:     out.Object.BranchID,
		})
		if err != nil {
			cmds = append(cmds, rejected(out, err), PreviewMoved{EdgeID: out.Object.ID, End: e.lineEnd})
			return cmds, internal(err)
		}
		return append(cmds, ConnectionCreated{Connection: res.Connection, RemovedPreviews: res.RemovedPreviews}), nil
	case drag.KindBranchLine:
		if out.Target == "" {
			return append(cmds, PreviewMoved{EdgeID: out.Object.ID, End: e.lineEnd}), nil
		}
		res, err := e.ctrl.RetargetConnection(out.Object.ID, out.Target)
		if err != nil {
			cmds = append(cmds, rejected(out, err), PreviewMoved{EdgeID: out.Object.ID, End: e.lineEnd})
			return cmds, internal(err)
		}
		if res.Connection.ID == out.Object.ID {
			return append(cmds, PreviewMoved{EdgeID: out.Object.ID, End: e.lineEnd}), nil
		}
		return append(cmds,
			ConnectionRemoved{EdgeID: out.Object.ID},
			ConnectionCreated{Connection: res.Connection, RemovedPreviews: res.RemovedPreviews},
		), nil
	}
	return cmds, nil
}

func rejected(out drag.Outcome, err error) ConnectionRejected {
	return ConnectionRejected{
		SourceNodeID: out.Object.SourceNodeID,
		TargetNodeID: out.Target,
		BranchID:     out.Object.BranchID,
		Code:         errors.GetCode(err),
		Reason:       errors.UserMessage(err),
	}
}

// internal passes through only errors the host must act on. Validation
// rejections are already reported as commands.
func internal(err error) error {
	if errors.ClassOf(err) == errors.ClassInternal {
		return err
	}
	return nil
}

// dropNode commits a node drag: the node moves, its previews follow, and
// any previews that now coincide are spread apart.
func (e *Editor) dropNode(out drag.Outcome) ([]Command, error) {
	delta := out.Moved()
	if delta == (geom.Point{}) {
		return nil, nil
	}
	id := out.Object.ID
	if e.surface.Node(id) == nil {
		return nil, nil
	}
	pos := e.nodeOrigin.Add(delta)
	if err := e.surface.MoveNode(id, pos); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSurface, err, "move node %s", id)
	}
	if err := e.ctrl.SyncNode(id); err != nil {
		return nil, err
	}
	cmds := []Command{MoveNode{NodeID: id, Position: pos}}

	if _, err := e.ctrl.TranslatePreviews(id, delta); err != nil {
		return cmds, err
	}
	moved, err := e.ctrl.RegenerateOverlappingPreviewLines(id)
	if err != nil {
		return cmds, err
	}
	for _, p := range canvas.Previews(e.surface.OutgoingEdges(id)) {
		cmds = append(cmds, PreviewMoved{EdgeID: p.ID, End: p.End})
	}
	if moved > 0 {
		cmds = append(cmds, PreviewLinesChanged{NodeID: id, Moved: moved})
	}
	e.index.CheckGridResize()
	return cmds, nil
}

func (e *Editor) cancel() []Command {
	s := e.drag.Session()
	out, ok := e.drag.EndDrag(drag.ResultCancelled)
	if !ok {
		return nil
	}
	var cmds []Command
	if out.Target != "" {
		cmds = append(cmds, ClearHighlight{})
	}
	if s.Kind == drag.KindNode {
		return append(cmds, MoveNode{NodeID: out.Object.ID, Position: e.nodeOrigin})
	}
	return append(cmds, PreviewMoved{EdgeID: out.Object.ID, End: e.lineEnd})
}
