package connect

import (
	stderrors "errors"
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/observability"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}
}

func newTestController(t *testing.T, nodes ...*canvas.Node) (*Controller, *canvas.MemorySurface) {
	t.Helper()
	s := canvas.NewMemorySurface()
	for _, n := range nodes {
		if err := s.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s) error: %v", n.ID, err)
		}
	}
	c := NewController(s, nil, nil, Options{NewID: sequentialIDs()})
	t.Cleanup(c.Branches().Destroy)
	return c, s
}

func splitNode(id string, pos geom.Point, layers ...string) *canvas.Node {
	cfg := &canvas.Config{}
	for _, l := range layers {
		cfg.CrowdLayers = append(cfg.CrowdLayers, canvas.CrowdLayer{ID: l, Name: l})
	}
	return &canvas.Node{ID: id, Type: canvas.TypeAudienceSplit, Position: pos, Config: cfg, Configured: true}
}

func smsNode(id string, pos geom.Point) *canvas.Node {
	return &canvas.Node{ID: id, Type: canvas.TypeSMS, Position: pos, Configured: true}
}

func previewBranches(s canvas.Surface, nodeID string) map[string]bool {
	out := make(map[string]bool)
	for _, p := range canvas.Previews(s.OutgoingEdges(nodeID)) {
		out[p.BranchID] = true
	}
	return out
}

func TestShouldCreatePreviewLine(t *testing.T) {
	c, s := newTestController(t,
		smsNode("sms", geom.Point{}),
		&canvas.Node{ID: "raw", Type: canvas.TypeSMS},
		&canvas.Node{ID: "start", Type: canvas.TypeStart},
		&canvas.Node{ID: "end", Type: canvas.TypeEnd, Configured: true},
		&canvas.Node{ID: "ep", Type: canvas.TypeEndpoint, Configured: true},
		smsNode("busy", geom.Point{X: 300}),
		smsNode("target", geom.Point{X: 600}),
	)
	if err := s.AddEdge(&canvas.Connection{ID: "c1", Source: canvas.PortRef{NodeID: "busy"}, Target: canvas.PortRef{NodeID: "target"}}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		node, exclude string
		want          bool
	}{
		{"sms", "", true},
		{"raw", "", false},
		{"start", "", true},
		{"end", "", false},
		{"ep", "", false},
		{"busy", "", false},
		{"busy", "c1", true},
		{"missing", "", false},
	}
	for _, tt := range tests {
		if got := c.ShouldCreatePreviewLine(tt.node, tt.exclude); got != tt.want {
			t.Errorf("ShouldCreatePreviewLine(%q, %q) = %v, want %v", tt.node, tt.exclude, got, tt.want)
		}
	}
}

func TestCreatePreviewLines(t *testing.T) {
	c, s := newTestController(t, splitNode("S", geom.Point{}, "b1", "b2"))

	created, err := c.CreatePreviewLines("S")
	if err != nil {
		t.Fatalf("CreatePreviewLines() error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("CreatePreviewLines() created %d, want 2", len(created))
	}
	if created[0].Label != "b1" || created[0].Source.Port != canvas.PortOut {
		t.Errorf("first preview = %+v", created[0])
	}

	again, err := c.CreatePreviewLines("S")
	if err != nil || len(again) != 0 {
		t.Errorf("second CreatePreviewLines() = %d, %v, want 0, nil", len(again), err)
	}
	if got := len(canvas.Previews(s.Edges())); got != 2 {
		t.Errorf("previews on surface = %d, want 2", got)
	}
}

func TestNominalEnd(t *testing.T) {
	c, _ := newTestController(t,
		splitNode("S", geom.Point{}, "b1", "b2"),
		splitNode("W", geom.Point{}, "a", "b", "c", "d", "e", "f", "g"),
		smsNode("one", geom.Point{X: 200, Y: 50}),
	)

	tests := []struct {
		node, branch string
		want         geom.Point
	}{
		{"S", "b1", geom.Point{X: -10, Y: 220}},
		{"S", "b2", geom.Point{X: 110, Y: 220}},
		{"one", "", geom.Point{X: 250, Y: 270}},
		// 7 branches cap the fan at 300 px.
		{"W", "a", geom.Point{X: -100, Y: 220}},
		{"W", "g", geom.Point{X: 200, Y: 220}},
	}
	for _, tt := range tests {
		got, ok := c.NominalEnd(tt.node, tt.branch)
		if !ok || got != tt.want {
			t.Errorf("NominalEnd(%q, %q) = %v, %v, want %v", tt.node, tt.branch, got, ok, tt.want)
		}
	}
	if _, ok := c.NominalEnd("S", "nope"); ok {
		t.Error("NominalEnd() for unknown branch should fail")
	}
}

func TestCreateConnectionRemovesOnlyMatchingPreview(t *testing.T) {
	c, s := newTestController(t,
		splitNode("S", geom.Point{}, "b1", "b2"),
		smsNode("T1", geom.Point{X: 0, Y: 300}),
	)
	if _, err := c.CreatePreviewLines("S"); err != nil {
		t.Fatal(err)
	}

	res, err := c.CreateConnection(Request{SourceNodeID: "S", TargetNodeID: "T1", BranchID: "b1"})
	if err != nil {
		t.Fatalf("CreateConnection() error: %v", err)
	}
	if len(res.RemovedPreviews) != 1 {
		t.Errorf("RemovedPreviews = %v, want one", res.RemovedPreviews)
	}
	if res.Connection.Label != "b1" || res.Connection.Target.Port != canvas.PortIn {
		t.Errorf("Connection = %+v", res.Connection)
	}

	got := previewBranches(s, "S")
	if got["b1"] || !got["b2"] || len(got) != 1 {
		t.Errorf("remaining previews = %v, want only b2", got)
	}
}

func TestCreateConnectionRejectsDuplicate(t *testing.T) {
	c, s := newTestController(t, smsNode("A", geom.Point{}), smsNode("B", geom.Point{Y: 300}))

	if _, err := c.CreateConnection(Request{SourceNodeID: "A", TargetNodeID: "B"}); err != nil {
		t.Fatalf("first CreateConnection() error: %v", err)
	}
	_, err := c.CreateConnection(Request{SourceNodeID: "A", TargetNodeID: "B"})
	if !errors.Is(err, errors.ErrCodeDuplicateConnection) {
		t.Fatalf("second CreateConnection() error = %v, want duplicate", err)
	}
	if got := errors.UserMessage(err); got != "connection already exists" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := len(canvas.Connections(s.Edges())); got != 1 {
		t.Errorf("connections = %d, want 1", got)
	}
}

func TestCreateConnectionValidationOrder(t *testing.T) {
	c, s := newTestController(t,
		smsNode("A", geom.Point{}),
		smsNode("B", geom.Point{Y: 300}),
		smsNode("C", geom.Point{X: 300, Y: 300}),
		splitNode("S", geom.Point{X: 600}, "b1"),
		&canvas.Node{ID: "raw", Type: canvas.TypeSMS},
		&canvas.Node{ID: "start", Type: canvas.TypeStart, Position: geom.Point{X: 900}},
		&canvas.Node{ID: "ep", Type: canvas.TypeEndpoint, Position: geom.Point{X: 900, Y: 300}},
	)
	if err := s.AddEdge(&canvas.Connection{ID: "ab", Source: canvas.PortRef{NodeID: "A"}, Target: canvas.PortRef{NodeID: "B"}}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  Request
		want errors.Code
	}{
		{"missing source", Request{SourceNodeID: "x", TargetNodeID: "x"}, errors.ErrCodeMissingSource},
		{"missing target", Request{SourceNodeID: "A", TargetNodeID: "x"}, errors.ErrCodeMissingTarget},
		{"self", Request{SourceNodeID: "A", TargetNodeID: "A"}, errors.ErrCodeSelfConnection},
		{"duplicate", Request{SourceNodeID: "A", TargetNodeID: "B"}, errors.ErrCodeDuplicateConnection},
		{"occupied", Request{SourceNodeID: "A", TargetNodeID: "C"}, errors.ErrCodeBranchOccupied},
		{"branch required", Request{SourceNodeID: "S", TargetNodeID: "C"}, errors.ErrCodeBranchRequired},
		{"unknown branch", Request{SourceNodeID: "S", TargetNodeID: "C", BranchID: "zz"}, errors.ErrCodeUnknownBranch},
		{"branch on single output", Request{SourceNodeID: "C", TargetNodeID: "B", BranchID: "b1"}, errors.ErrCodeUnknownBranch},
		{"unconfigured source", Request{SourceNodeID: "raw", TargetNodeID: "B"}, errors.ErrCodeNotConnectable},
		{"start target", Request{SourceNodeID: "C", TargetNodeID: "start"}, errors.ErrCodeNotConnectable},
		{"artifact target", Request{SourceNodeID: "C", TargetNodeID: "ep"}, errors.ErrCodeNotConnectable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateConnection(tt.req)
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("CreateConnection() code = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
	if got := len(canvas.Connections(s.Edges())); got != 1 {
		t.Errorf("connections after rejections = %d, want 1", got)
	}
}

type failingSurface struct {
	*canvas.MemorySurface
	failRemove string
}

func (f *failingSurface) RemoveEdge(id string) error {
	if id == f.failRemove {
		return stderrors.New("host refused")
	}
	return f.MemorySurface.RemoveEdge(id)
}

func TestCreateConnectionRollsBack(t *testing.T) {
	mem := canvas.NewMemorySurface()
	_ = mem.AddNode(smsNode("A", geom.Point{}))
	_ = mem.AddNode(smsNode("B", geom.Point{Y: 300}))
	_ = mem.AddEdge(&canvas.PreviewEdge{ID: "p", Source: canvas.PortRef{NodeID: "A"}})

	s := &failingSurface{MemorySurface: mem, failRemove: "p"}
	c := NewController(s, nil, nil, Options{NewID: sequentialIDs()})

	_, err := c.CreateConnection(Request{SourceNodeID: "A", TargetNodeID: "B"})
	if !errors.Is(err, errors.ErrCodeSurface) {
		t.Fatalf("CreateConnection() error = %v, want surface error", err)
	}
	if got := len(canvas.Connections(mem.Edges())); got != 0 {
		t.Errorf("connections after rollback = %d, want 0", got)
	}
	if mem.Edge("p") == nil {
		t.Error("preview should survive a failed commit")
	}
}

func TestRemoveConnectionRestoresPreview(t *testing.T) {
	c, s := newTestController(t,
		splitNode("S", geom.Point{}, "b1", "b2"),
		smsNode("T", geom.Point{Y: 300}),
	)
	if _, err := c.CreatePreviewLines("S"); err != nil {
		t.Fatal(err)
	}
	res, err := c.CreateConnection(Request{SourceNodeID: "S", TargetNodeID: "T", BranchID: "b2"})
	if err != nil {
		t.Fatal(err)
	}

	p, err := c.RemoveConnection(res.Connection.ID)
	if err != nil {
		t.Fatalf("RemoveConnection() error: %v", err)
	}
	if p == nil || p.BranchID != "b2" {
		t.Fatalf("RemoveConnection() preview = %+v, want b2", p)
	}
	want, _ := c.NominalEnd("S", "b2")
	if p.End != want {
		t.Errorf("restored end = %v, want %v", p.End, want)
	}
	if got := previewBranches(s, "S"); !got["b1"] || !got["b2"] {
		t.Errorf("previews = %v, want b1 and b2", got)
	}

	if _, err := c.RemoveConnection(res.Connection.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second RemoveConnection() error = %v, want not found", err)
	}
}

func TestRefreshPreviewLines(t *testing.T) {
	c, s := newTestController(t, splitNode("S", geom.Point{}, "b1", "b2"))
	if _, err := c.CreatePreviewLines("S"); err != nil {
		t.Fatal(err)
	}

	n := s.Node("S")
	n.Config = &canvas.Config{CrowdLayers: []canvas.CrowdLayer{{ID: "b2"}, {ID: "b3"}}}

	removed, created, err := c.RefreshPreviewLines("S")
	if err != nil {
		t.Fatalf("RefreshPreviewLines() error: %v", err)
	}
	if len(removed) != 1 || len(created) != 1 || created[0].BranchID != "b3" {
		t.Errorf("RefreshPreviewLines() = %v, %+v", removed, created)
	}
	if got := previewBranches(s, "S"); len(got) != 2 || !got["b2"] || !got["b3"] {
		t.Errorf("previews = %v, want b2 and b3", got)
	}
}

func TestRemovePreviewLines(t *testing.T) {
	c, s := newTestController(t, splitNode("S", geom.Point{}, "b1", "b2"))
	if _, err := c.CreatePreviewLines("S"); err != nil {
		t.Fatal(err)
	}
	removed, err := c.RemovePreviewLines("S")
	if err != nil || len(removed) != 2 {
		t.Fatalf("RemovePreviewLines() = %v, %v", removed, err)
	}
	if got := len(s.Edges()); got != 0 {
		t.Errorf("edges = %d, want 0", got)
	}
}

func TestTranslatePreviews(t *testing.T) {
	c, s := newTestController(t, smsNode("A", geom.Point{}))
	created, err := c.CreatePreviewLines("A")
	if err != nil || len(created) != 1 {
		t.Fatal(err)
	}
	before := created[0].End

	moved, err := c.TranslatePreviews("A", geom.Point{X: 15, Y: -5})
	if err != nil || len(moved) != 1 {
		t.Fatalf("TranslatePreviews() = %v, %v", moved, err)
	}
	got := s.Edge(created[0].ID).(*canvas.PreviewEdge).End
	if want := before.Add(geom.Point{X: 15, Y: -5}); got != want {
		t.Errorf("end = %v, want %v", got, want)
	}
}

func setEnds(t *testing.T, s canvas.Surface, nodeID string, ends ...geom.Point) {
	t.Helper()
	previews := canvas.Previews(s.OutgoingEdges(nodeID))
	if len(previews) != len(ends) {
		t.Fatalf("node %s has %d previews, want %d", nodeID, len(previews), len(ends))
	}
	for i, p := range previews {
		next := *p
		next.End = ends[i]
		if err := s.UpdateEdge(&next); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCheckPreviewLineOverlap(t *testing.T) {
	c, s := newTestController(t, splitNode("S", geom.Point{}, "b1", "b2", "b3", "b4"))
	if _, err := c.CreatePreviewLines("S"); err != nil {
		t.Fatal(err)
	}
	if groups := c.CheckPreviewLineOverlap("S"); len(groups) != 0 {
		t.Fatalf("nominal previews overlap: %+v", groups)
	}

	setEnds(t, s, "S",
		geom.Point{X: 200, Y: 150},
		geom.Point{X: 205, Y: 152},
		geom.Point{X: 500, Y: 150},
		geom.Point{X: 530, Y: 150},
	)
	groups := c.CheckPreviewLineOverlap("S")
	if len(groups) != 1 {
		t.Fatalf("CheckPreviewLineOverlap() = %d groups, want 1", len(groups))
	}
	if got := len(groups[0].Previews); got != 2 {
		t.Errorf("group size = %d, want 2", got)
	}
}

func TestRegenerateOverlappingPreviewLines(t *testing.T) {
	c, s := newTestController(t, splitNode("S", geom.Point{}, "b1", "b2", "b3"))
	if _, err := c.CreatePreviewLines("S"); err != nil {
		t.Fatal(err)
	}
	setEnds(t, s, "S",
		geom.Point{X: 200, Y: 150},
		geom.Point{X: 200, Y: 150},
		geom.Point{X: 205, Y: 152},
	)
	if groups := c.CheckPreviewLineOverlap("S"); len(groups) != 1 || len(groups[0].Previews) != 3 {
		t.Fatalf("CheckPreviewLineOverlap() = %+v, want one group of 3", groups)
	}

	moved, err := c.RegenerateOverlappingPreviewLines("S")
	if err != nil {
		t.Fatalf("RegenerateOverlappingPreviewLines() error: %v", err)
	}
	if moved != 3 {
		t.Errorf("moved = %d, want 3", moved)
	}

	previews := canvas.Previews(s.OutgoingEdges("S"))
	step := c.Options().OffsetStep
	for i := range previews {
		for j := i + 1; j < len(previews); j++ {
			if d := previews[i].End.Distance(previews[j].End); d < step-1e-9 {
				t.Errorf("previews %s and %s are %v apart, want >= %v", previews[i].ID, previews[j].ID, d, step)
			}
		}
	}
	if groups := c.CheckPreviewLineOverlap("S"); len(groups) != 0 {
		t.Errorf("overlap remains after repair: %+v", groups)
	}
	if n, _ := c.RegenerateOverlappingPreviewLines("S"); n != 0 {
		t.Errorf("second repair moved %d, want 0", n)
	}
}

func TestRegenerateAvoidsSiblingEnds(t *testing.T) {
	c, s := newTestController(t, splitNode("S", geom.Point{}, "b1", "b2", "b3"))
	if _, err := c.CreatePreviewLines("S"); err != nil {
		t.Fatal(err)
	}
	pile := geom.Point{X: 900, Y: 900}
	setEnds(t, s, "S", pile, pile, geom.Point{X: -900, Y: 900})

	groups := c.CheckPreviewLineOverlap("S")
	if len(groups) != 1 || len(groups[0].Previews) != 2 {
		t.Fatalf("CheckPreviewLineOverlap() = %+v, want one group of 2", groups)
	}
	inGroup := map[string]bool{}
	for _, p := range groups[0].Previews {
		inGroup[p.ID] = true
	}
	anchor, ok := c.NominalEnd("S", groups[0].Previews[0].BranchID)
	if !ok {
		t.Fatal("NominalEnd() should resolve the first member's branch")
	}

	// Park the sibling on the slot the right-hand member would take.
	step := c.Options().OffsetStep
	occupied := geom.Point{X: anchor.X + step/2, Y: anchor.Y}
	var sibling string
	for _, p := range canvas.Previews(s.OutgoingEdges("S")) {
		if inGroup[p.ID] {
			continue
		}
		sibling = p.ID
		next := *p
		next.End = occupied
		if err := s.UpdateEdge(&next); err != nil {
			t.Fatal(err)
		}
	}

	moved, err := c.RegenerateOverlappingPreviewLines("S")
	if err != nil {
		t.Fatalf("RegenerateOverlappingPreviewLines() error: %v", err)
	}
	if moved != 2 {
		t.Errorf("moved = %d, want 2", moved)
	}
	if groups := c.CheckPreviewLineOverlap("S"); len(groups) != 0 {
		t.Errorf("overlap remains after repair: %+v", groups)
	}
	for _, p := range canvas.Previews(s.OutgoingEdges("S")) {
		if p.ID == sibling && p.End != occupied {
			t.Errorf("sibling %s moved to %v, want %v", p.ID, p.End, occupied)
		}
	}
}

func TestFindSnapTarget(t *testing.T) {
	c, _ := newTestController(t,
		smsNode("src", geom.Point{}),
		smsNode("near", geom.Point{X: 0, Y: 300}),
		smsNode("far", geom.Point{X: 400, Y: 300}),
		&canvas.Node{ID: "ep", Type: canvas.TypeEndpoint, Position: geom.Point{X: 200, Y: 300}},
	)
	if err := c.SyncIndex(); err != nil {
		t.Fatalf("SyncIndex() error: %v", err)
	}

	tests := []struct {
		name    string
		pos     geom.Point
		exclude string
		want    string
	}{
		{"at in port", geom.Point{X: 50, Y: 290}, "src", "near"},
		{"within radius", geom.Point{X: 70, Y: 270}, "src", "near"},
		{"inside bounds", geom.Point{X: 90, Y: 390}, "src", "near"},
		{"too far", geom.Point{X: 50, Y: 200}, "src", ""},
		{"artifact", geom.Point{X: 250, Y: 300}, "src", ""},
		{"excluded", geom.Point{X: 50, Y: 300}, "near", ""},
		{"other node", geom.Point{X: 450, Y: 280}, "src", "far"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, ok := c.FindSnapTarget(tt.pos, tt.exclude)
			if got := snap.NodeID; got != tt.want || ok != (tt.want != "") {
				t.Errorf("FindSnapTarget(%v) = %q, %v, want %q", tt.pos, got, ok, tt.want)
			}
		})
	}

	snap, _ := c.FindSnapTarget(geom.Point{X: 50, Y: 290}, "src")
	if snap.Port != (geom.Point{X: 50, Y: 300}) || math.Abs(snap.Distance-10) > 1e-9 {
		t.Errorf("snap = %+v", snap)
	}
}

func TestSyncNodeTracksMoves(t *testing.T) {
	c, s := newTestController(t, smsNode("src", geom.Point{}), smsNode("t", geom.Point{Y: 300}))
	if err := c.SyncIndex(); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveNode("t", geom.Point{X: 1000, Y: 1000}); err != nil {
		t.Fatal(err)
	}
	if err := c.SyncNode("t"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.FindSnapTarget(geom.Point{X: 50, Y: 300}, "src"); ok {
		t.Error("stale position still snaps")
	}
	if snap, ok := c.FindSnapTarget(geom.Point{X: 1050, Y: 1000}, "src"); !ok || snap.NodeID != "t" {
		t.Errorf("FindSnapTarget() at new position = %+v, %v", snap, ok)
	}

	if err := s.RemoveNode("t"); err != nil {
		t.Fatal(err)
	}
	if err := c.SyncNode("t"); err != nil {
		t.Fatal(err)
	}
	if c.Index().Len() != 1 {
		t.Errorf("index len = %d, want 1", c.Index().Len())
	}
}

type recordingConnectionHooks struct {
	observability.NoopConnectionHooks
	created  int
	rejected []string
	repaired int
}

func (h *recordingConnectionHooks) OnConnectionCreated(string, string, string) { h.created++ }
func (h *recordingConnectionHooks) OnConnectionRejected(code string)            { h.rejected = append(h.rejected, code) }
func (h *recordingConnectionHooks) OnPreviewsRepaired(string, int, int)        { h.repaired++ }

func TestConnectionHooks(t *testing.T) {
	h := &recordingConnectionHooks{}
	observability.SetConnectionHooks(h)
	defer observability.Reset()

	c, _ := newTestController(t, smsNode("A", geom.Point{}), smsNode("B", geom.Point{Y: 300}))
	_, _ = c.CreateConnection(Request{SourceNodeID: "A", TargetNodeID: "B"})
	_, _ = c.CreateConnection(Request{SourceNodeID: "A", TargetNodeID: "A"})

	if h.created != 1 {
		t.Errorf("created = %d, want 1", h.created)
	}
	if len(h.rejected) != 1 || h.rejected[0] != string(errors.ErrCodeSelfConnection) {
		t.Errorf("rejected = %v", h.rejected)
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("DefaultOptions().Validate() = %v", err)
	}
	o := DefaultOptions()
	o.OffsetStep = 5
	if err := o.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfiguration) {
		t.Errorf("Validate() with small step = %v, want invalid configuration", err)
	}
	o = DefaultOptions()
	o.SnapRadius = -1
	if err := o.Validate(); err == nil {
		t.Error("Validate() with negative radius should fail")
	}
}

func TestRetargetConnection(t *testing.T) {
	c, s := newTestController(t,
		splitNode("S", geom.Point{}, "b1"),
		smsNode("T1", geom.Point{Y: 300}),
		smsNode("T2", geom.Point{X: 300, Y: 300}),
	)
	res, err := c.CreateConnection(Request{SourceNodeID: "S", TargetNodeID: "T1", BranchID: "b1"})
	if err != nil {
		t.Fatal(err)
	}

	moved, err := c.RetargetConnection(res.Connection.ID, "T2")
	if err != nil {
		t.Fatalf("RetargetConnection() error: %v", err)
	}
	if moved.Connection.Target.NodeID != "T2" || moved.Connection.BranchID != "b1" {
		t.Errorf("retargeted = %+v", moved.Connection)
	}
	if s.Edge(res.Connection.ID) != nil {
		t.Error("old connection still present")
	}

	_, err = c.RetargetConnection(moved.Connection.ID, "S")
	if !errors.Is(err, errors.ErrCodeSelfConnection) {
		t.Fatalf("RetargetConnection() to source = %v, want self connection", err)
	}
	if s.Edge(moved.Connection.ID) == nil {
		t.Error("rejected retarget should restore the connection")
	}
	if got := len(canvas.Connections(s.Edges())); got != 1 {
		t.Errorf("connections = %d, want 1", got)
	}
}
