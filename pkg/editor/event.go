package editor

import (
	"time"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
)

// EventType names an input from the host.
type EventType string

const (
	EventNodeDragStart     EventType = "node_drag_start"
	EventPreviewDragStart  EventType = "preview_drag_start"
	EventBranchDragStart   EventType = "branch_drag_start"
	EventPointerMove       EventType = "pointer_move"
	EventPointerUp         EventType = "pointer_up"
	EventCancel            EventType = "cancel"
	EventNodeEnter         EventType = "node_enter"
	EventNodeLeave         EventType = "node_leave"
	EventNodeAdded         EventType = "node_added"
	EventNodeRemoved       EventType = "node_removed"
	EventNodeConfigured    EventType = "node_configured"
	EventConnectionRemoved EventType = "connection_removed"
)

// Event is one host input. NodeID or EdgeID identify the subject where the
// event has one. A zero At means now.
type Event struct {
	Type     EventType
	NodeID   string
	EdgeID   string
	Position geom.Point
	At       time.Time
}

// Command is an instruction to the host. The concrete types are the
// exported structs of this file.
type Command interface {
	Name() string
	command()
}

// MoveNode draws a node at Position (top-left corner).
type MoveNode struct {
	NodeID   string
	Position geom.Point
}

// PreviewMoved draws the free end of a line at End.
type PreviewMoved struct {
	EdgeID string
	End    geom.Point
}

// HighlightTarget marks the node a dragged line would connect to.
type HighlightTarget struct {
	NodeID string
	Port   geom.Point
}

// ClearHighlight removes any target highlight.
type ClearHighlight struct{}

// ShowMenu opens the hover menu of a node.
type ShowMenu struct{ NodeID string }

// HideMenu closes the hover menu of a node.
type HideMenu struct{ NodeID string }

// ConnectionCreated reports a committed connection.
type ConnectionCreated struct {
	Connection      *canvas.Connection
	RemovedPreviews []string
}

// ConnectionRemoved reports a deleted connection.
type ConnectionRemoved struct{ EdgeID string }

// ConnectionRejected reports a refused connection attempt.
type ConnectionRejected struct {
	SourceNodeID string
	TargetNodeID string
	BranchID     string
	Code         errors.Code
	Reason       string
}

// PreviewLinesChanged reports previews created, removed or repositioned
// for a node.
type PreviewLinesChanged struct {
	NodeID  string
	Created []string
	Removed []string
	Moved   int
}

func (MoveNode) Name() string            { return "move_node" }
func (PreviewMoved) Name() string        { return "preview_moved" }
func (HighlightTarget) Name() string     { return "highlight_target" }
func (ClearHighlight) Name() string      { return "clear_highlight" }
func (ShowMenu) Name() string            { return "show_menu" }
func (HideMenu) Name() string            { return "hide_menu" }
func (ConnectionCreated) Name() string   { return "connection_created" }
func (ConnectionRemoved) Name() string   { return "connection_removed" }
func (ConnectionRejected) Name() string  { return "connection_rejected" }
func (PreviewLinesChanged) Name() string { return "preview_lines_changed" }

func (MoveNode) command()            {}
func (PreviewMoved) command()        {}
func (HighlightTarget) command()     {}
func (ClearHighlight) command()      {}
func (ShowMenu) command()            {}
func (HideMenu) command()            {}
func (ConnectionCreated) command()   {}
func (ConnectionRemoved) command()   {}
func (ConnectionRejected) command()  {}
func (PreviewLinesChanged) command() {}
