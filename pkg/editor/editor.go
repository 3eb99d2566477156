// Package editor turns host input events into commands.
//
// An [Editor] owns one drag session, one spatial index, one layout
// distributor and one connection controller over a host [canvas.Surface].
// The host feeds it events and applies the returned commands:
//
//	ed, err := editor.New(surface, editor.Options{})
//	if err != nil {
//	    return err
//	}
//	defer ed.Destroy()
//
//	cmds, err := ed.Handle(editor.Event{Type: editor.EventPreviewDragStart, EdgeID: id, Position: p})
//	cmds, err = ed.OnPointerMove(p2)
//	cmds, err = ed.Handle(editor.Event{Type: editor.EventPointerUp, Position: p2})
//
// All calls must come from one goroutine. Event timestamps drive the
// operation lock and the menu timers, so a recorded event stream replays
// deterministically.
package editor

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/branch"
	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/connect"
	"github.com/matzehuels/flowcanvas/pkg/drag"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/ratelimit"
	"github.com/matzehuels/flowcanvas/pkg/spatial"
)

// Default menu timings.
const (
	DefaultShowThrottle = 100 * time.Millisecond
	DefaultHideDelay    = 200 * time.Millisecond
)

// Options configures an [Editor]. Component loggers default to Logger with
// a component prefix.
type Options struct {
	Drag        drag.Options
	Spatial     spatial.Options
	Layout      layout.Options
	Connect     connect.Options
	BranchCache cache.LRUOptions

	// Registry overrides the node type table.
	Registry *branch.Registry

	ShowThrottle time.Duration
	HideDelay    time.Duration

	Logger *log.Logger
}

// Editor is one canvas editing session.
type Editor struct {
	surface     canvas.Surface
	drag        *drag.Machine
	index       *spatial.Index
	distributor *layout.Distributor
	branchCache *cache.LRU[string, []canvas.Branch]
	branches    *branch.Resolver
	ctrl        *connect.Controller
	logger      *log.Logger

	showThrottle *ratelimit.Throttle
	hideDebounce *ratelimit.Debounce
	menuNode     string

	now time.Time

	// Captured at drag start for restoring on cancel.
	nodeOrigin geom.Point
	lineEnd    geom.Point
}

// New creates an editor over surface and indexes its nodes.
func New(surface canvas.Surface, opts Options) (*Editor, error) {
	if surface == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "editor needs a surface")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.ShowThrottle <= 0 {
		opts.ShowThrottle = DefaultShowThrottle
	}
	if opts.HideDelay <= 0 {
		opts.HideDelay = DefaultHideDelay
	}

	e := &Editor{
		surface:      surface,
		logger:       logger,
		showThrottle: ratelimit.NewThrottle(opts.ShowThrottle),
		hideDebounce: ratelimit.NewDebounce(opts.HideDelay),
	}

	dragOpts := opts.Drag
	dragOpts.Clock = e.clock
	dragOpts.Logger = orLogger(dragOpts.Logger, logger, "drag")
	e.drag = drag.New(dragOpts)

	spatialOpts := opts.Spatial
	spatialOpts.Logger = orLogger(spatialOpts.Logger, logger, "spatial")
	e.index = spatial.New(spatialOpts)

	layoutOpts := opts.Layout
	layoutOpts.Logger = orLogger(layoutOpts.Logger, logger, "layout")
	e.distributor = layout.NewDistributor(layoutOpts)

	cacheOpts := opts.BranchCache
	if cacheOpts.Name == "" {
		cacheOpts.Name = "branches"
	}
	e.branchCache = cache.NewLRU[string, []canvas.Branch](cacheOpts)
	e.branches = branch.NewResolver(opts.Registry, branch.ResolverOptions{
		Cache:  e.branchCache,
		TTL:    cacheOpts.DefaultTTL,
		Logger: orLogger(nil, logger, "branch"),
	})

	connectOpts := opts.Connect
	connectOpts.Logger = orLogger(connectOpts.Logger, logger, "connect")
	e.ctrl = connect.NewController(surface, e.branches, e.index, connectOpts)

	if err := e.ctrl.SyncIndex(); err != nil {
		e.Destroy()
		return nil, err
	}
	return e, nil
}

func orLogger(l, parent *log.Logger, prefix string) *log.Logger {
	if l != nil {
		return l
	}
	return parent.WithPrefix(prefix)
}

func (e *Editor) clock() time.Time { return e.now }

// Surface returns the host surface.
func (e *Editor) Surface() canvas.Surface { return e.surface }

// Controller returns the connection controller.
func (e *Editor) Controller() *connect.Controller { return e.ctrl }

// Drag returns the drag state machine.
func (e *Editor) Drag() *drag.Machine { return e.drag }

// Distributor returns the layout distributor.
func (e *Editor) Distributor() *layout.Distributor { return e.distributor }

// MenuNode returns the node whose hover menu is open, if any.
func (e *Editor) MenuNode() string { return e.menuNode }

// Handle processes one event and returns the commands for the host. Invalid
// interactions produce no commands; connection rejections are reported as
// [ConnectionRejected]. An error means the surface refused a write.
func (e *Editor) Handle(ev Event) ([]Command, error) {
	e.advance(ev.At)
	switch ev.Type {
	case EventNodeDragStart:
		return e.startNodeDrag(ev), nil
	case EventPreviewDragStart:
		return e.startPreviewDrag(ev), nil
	case EventBranchDragStart:
		return e.startBranchDrag(ev), nil
	case EventPointerMove:
		return e.pointerMove(ev.Position), nil
	case EventPointerUp:
		return e.pointerUp(ev.Position)
	case EventCancel:
		return e.cancel(), nil
	case EventNodeEnter:
		return e.nodeEnter(ev.NodeID), nil
	case EventNodeLeave:
		return e.nodeLeave(ev.NodeID), nil
	case EventNodeAdded:
		return e.nodeAdded(ev.NodeID)
	case EventNodeRemoved:
		return e.nodeRemoved(ev.NodeID)
	case EventNodeConfigured:
		return e.nodeConfigured(ev.NodeID)
	case EventConnectionRemoved:
		return e.connectionRemoved(ev.EdgeID)
	default:
		e.logger.Warn("unknown event", "type", ev.Type)
		return nil, nil
	}
}

// OnPointerMove is Handle for a pointer move at the current time.
func (e *Editor) OnPointerMove(pos geom.Point) ([]Command, error) {
	return e.Handle(Event{Type: EventPointerMove, Position: pos})
}

// Tick advances the clock and fires a due menu hide.
func (e *Editor) Tick(now time.Time) []Command {
	e.advance(now)
	if e.hideDebounce.Fire(e.now) && e.menuNode != "" {
		id := e.menuNode
		e.menuNode = ""
		return []Command{HideMenu{NodeID: id}}
	}
	return nil
}

// advance moves the editor clock forward. Timestamps never go backwards so
// a late duplicate cannot reopen a closed lock window.
func (e *Editor) advance(at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}
	if at.After(e.now) {
		e.now = at
	}
}

// Destroy releases every component.
func (e *Editor) Destroy() {
	e.drag.Destroy()
	e.distributor.Destroy()
	e.branches.Destroy()
	e.branchCache.Destroy()
	e.index.Clear()
	e.showThrottle.Reset()
	e.hideDebounce.Cancel()
	e.menuNode = ""
}

func (e *Editor) hideMenuNow() []Command {
	e.hideDebounce.Cancel()
	if e.menuNode == "" {
		return nil
	}
	id := e.menuNode
	e.menuNode = ""
	return []Command{HideMenu{NodeID: id}}
}

func (e *Editor) nodeEnter(nodeID string) []Command {
	if e.drag.Active() || e.surface.Node(nodeID) == nil {
		return nil
	}
	if e.menuNode == nodeID {
		e.hideDebounce.Cancel()
		return nil
	}
	if !e.showThrottle.Allow(e.now) {
		return nil
	}
	cmds := e.hideMenuNow()
	e.menuNode = nodeID
	return append(cmds, ShowMenu{NodeID: nodeID})
}

func (e *Editor) nodeLeave(nodeID string) []Command {
	if e.menuNode == nodeID {
		e.hideDebounce.Schedule(e.now)
	}
	return nil
}
