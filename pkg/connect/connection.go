package connect

import (
	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/observability"
)

// Request describes a connection to create.
type Request struct {
	SourceNodeID string
	TargetNodeID string
	SourcePort   string
	TargetPort   string

	// BranchID selects the output of a branching source. It must be empty
	// for single-output sources.
	BranchID string
}

// Result is the outcome of a successful [Controller.CreateConnection].
type Result struct {
	Connection *canvas.Connection

	// RemovedPreviews lists the previews deleted because the connection
	// now occupies their slot.
	RemovedPreviews []string
}

// CreateConnection validates and commits a connection. Checks run in a
// fixed order so callers always see the same reason for the same input:
// missing endpoints, self connection, duplicate, occupied slot, branch
// validity, then target eligibility.
//
// On success the preview for the same source and branch is deleted. Other
// previews of the source are left alone. If the surface fails midway the
// connection is rolled back.
func (c *Controller) CreateConnection(req Request) (*Result, error) {
	res, err := c.createConnection(req)
	if err != nil {
		observability.Connection().OnConnectionRejected(string(errors.GetCode(err)))
		c.opts.Logger.Debug("connection rejected",
			"source", req.SourceNodeID, "target", req.TargetNodeID, "branch", req.BranchID,
			"code", errors.GetCode(err), "class", errors.ClassOf(err))
		return nil, err
	}
	observability.Connection().OnConnectionCreated(req.SourceNodeID, req.TargetNodeID, req.BranchID)
	c.opts.Logger.Info("connection created",
		"id", res.Connection.ID, "source", req.SourceNodeID, "target", req.TargetNodeID,
		"branch", req.BranchID, "previews_removed", len(res.RemovedPreviews))
	return res, nil
}

func (c *Controller) createConnection(req Request) (*Result, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	conn := &canvas.Connection{
		ID:       c.opts.NewID(),
		Source:   canvas.PortRef{NodeID: req.SourceNodeID, Port: orPort(req.SourcePort, canvas.PortOut)},
		Target:   canvas.PortRef{NodeID: req.TargetNodeID, Port: orPort(req.TargetPort, canvas.PortIn)},
		BranchID: req.BranchID,
	}
	if req.BranchID != "" {
		for _, b := range c.branches.BranchesOf(c.surface.Node(req.SourceNodeID)) {
			if b.ID == req.BranchID {
				conn.Label = b.Label
			}
		}
	}
	if err := c.surface.AddEdge(conn); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSurface, err, "add connection")
	}

	var removed []string
	for _, p := range canvas.Previews(c.surface.OutgoingEdges(req.SourceNodeID)) {
		if p.BranchID != req.BranchID {
			continue
		}
		if err := c.surface.RemoveEdge(p.ID); err != nil {
			if rbErr := c.surface.RemoveEdge(conn.ID); rbErr != nil {
				c.opts.Logger.Error("connection rollback failed", "id", conn.ID, "err", rbErr)
			}
			return nil, errors.Wrap(errors.ErrCodeSurface, err, "remove preview %s", p.ID)
		}
		removed = append(removed, p.ID)
	}
	return &Result{Connection: conn, RemovedPreviews: removed}, nil
}

func (c *Controller) validate(req Request) error {
	src := c.surface.Node(req.SourceNodeID)
	if src == nil {
		return errors.New(errors.ErrCodeMissingSource, "source node %q not found", req.SourceNodeID)
	}
	tgt := c.surface.Node(req.TargetNodeID)
	if tgt == nil {
		return errors.New(errors.ErrCodeMissingTarget, "target node %q not found", req.TargetNodeID)
	}
	if req.SourceNodeID == req.TargetNodeID {
		return errors.New(errors.ErrCodeSelfConnection, "node %s cannot connect to itself", req.SourceNodeID)
	}

	for _, conn := range canvas.Connections(c.surface.OutgoingEdges(req.SourceNodeID)) {
		if conn.Target.NodeID == req.TargetNodeID && conn.BranchID == req.BranchID {
			return errors.New(errors.ErrCodeDuplicateConnection, "connection already exists")
		}
	}
	if c.occupied(req.SourceNodeID, req.BranchID, "") {
		return errors.New(errors.ErrCodeBranchOccupied, "output %q of %s is already connected", req.BranchID, req.SourceNodeID)
	}

	srcHandler := c.branches.Handler(src)
	switch {
	case srcHandler.Branching() && req.BranchID == "":
		return errors.New(errors.ErrCodeBranchRequired, "node %s has several outputs, a branch is required", req.SourceNodeID)
	case srcHandler.Branching() && !c.branches.HasBranch(src, req.BranchID):
		return errors.New(errors.ErrCodeUnknownBranch, "node %s has no branch %q", req.SourceNodeID, req.BranchID)
	case !srcHandler.Branching() && req.BranchID != "":
		return errors.New(errors.ErrCodeUnknownBranch, "node %s has a single output, got branch %q", req.SourceNodeID, req.BranchID)
	}

	if !c.branches.Ready(src) {
		return errors.New(errors.ErrCodeNotConnectable, "node %s cannot start a connection", req.SourceNodeID)
	}
	if h := c.branches.Handler(tgt); h.Artifact || !h.Droppable {
		return errors.New(errors.ErrCodeNotConnectable, "node %s does not accept connections", req.TargetNodeID)
	}
	return nil
}

func orPort(port, def string) string {
	if port == "" {
		return def
	}
	return port
}

// RemoveConnection deletes a connection and restores the preview of the
// slot it occupied when the source still qualifies for one.
func (c *Controller) RemoveConnection(edgeID string) (*canvas.PreviewEdge, error) {
	conn, ok := c.surface.Edge(edgeID).(*canvas.Connection)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "connection %s not found", edgeID)
	}
	if err := c.surface.RemoveEdge(edgeID); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSurface, err, "remove connection %s", edgeID)
	}
	c.opts.Logger.Info("connection removed", "id", edgeID, "source", conn.Source.NodeID, "branch", conn.BranchID)

	created, err := c.CreatePreviewLines(conn.Source.NodeID)
	if err != nil {
		return nil, err
	}
	for _, p := range created {
		if p.BranchID == conn.BranchID {
			return p, nil
		}
	}
	return nil, nil
}

// RetargetConnection moves the target end of a connection to another node,
// keeping its source and branch. The new connection is validated like a
// fresh one; on rejection the original is put back unchanged.
func (c *Controller) RetargetConnection(edgeID, targetNodeID string) (*Result, error) {
	old, ok := c.surface.Edge(edgeID).(*canvas.Connection)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "connection %s not found", edgeID)
	}
	if old.Target.NodeID == targetNodeID {
		return &Result{Connection: old}, nil
	}
	if err := c.surface.RemoveEdge(edgeID); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSurface, err, "remove connection %s", edgeID)
	}

	res, err := c.CreateConnection(Request{
		SourceNodeID: old.Source.NodeID,
		TargetNodeID: targetNodeID,
		SourcePort:   old.Source.Port,
		BranchID:     old.BranchID,
	})
	if err != nil {
		if rbErr := c.surface.AddEdge(old); rbErr != nil {
			return nil, errors.Wrap(errors.ErrCodeSurface, rbErr, "restore connection %s", edgeID)
		}
		return nil, err
	}
	return res, nil
}
