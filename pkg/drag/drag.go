// Package drag tracks the single in-flight pointer gesture of an editor.
//
// A [Machine] owns one [Session] and moves it through
//
//	Idle -> Dragging -> Snapping -> Dragging -> ... -> Idle
//
// Only one gesture is active at a time. Host surfaces often dispatch
// duplicate start or end callbacks for the same physical gesture, so
// ending stamps a short operation lock on the finished object; a start for
// that object arriving while the lock is held is rejected. A different
// object may start at once. Ending is never blocked by the lock.
//
// Rejected transitions return false, leave the session untouched and are
// logged as warnings. They are not errors.
package drag

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/observability"
)

// DefaultLockWindow is the operation lock applied when a gesture ends.
const DefaultLockWindow = 50 * time.Millisecond

// State is the session state.
type State int

const (
	Idle State = iota
	Dragging
	Snapping
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Snapping:
		return "snapping"
	default:
		return "idle"
	}
}

// Kind is what is being dragged.
type Kind int

const (
	KindNode Kind = iota
	KindPreviewLine
	KindBranchLine
)

// String returns the kind name used in logs and hooks.
func (k Kind) String() string {
	switch k {
	case KindPreviewLine:
		return "preview_line"
	case KindBranchLine:
		return "branch_line"
	default:
		return "node"
	}
}

// Object identifies the dragged thing. For line drags ID is the edge id and
// SourceNodeID/BranchID locate the branch it belongs to.
type Object struct {
	ID           string
	SourceNodeID string
	BranchID     string
}

// Result tells how a gesture ended.
type Result int

const (
	ResultDropped Result = iota
	ResultCancelled
)

// String returns the result name.
func (r Result) String() string {
	if r == ResultCancelled {
		return "cancelled"
	}
	return "dropped"
}

// Session is the state of the current gesture.
type Session struct {
	State           State
	Kind            Kind
	Object          Object
	StartPosition   *geom.Point
	CurrentPosition geom.Point
	Target          string
	SnapMeta        map[string]any
	StartedAt       time.Time
	LockExpiresAt   time.Time
}

// Outcome is returned by [Machine.EndDrag].
type Outcome struct {
	Kind     Kind
	Object   Object
	Start    geom.Point
	End      geom.Point
	Target   string
	SnapMeta map[string]any
	Result   Result
	Duration time.Duration
}

// Moved returns the displacement between start and end.
func (o Outcome) Moved() geom.Point { return o.End.Sub(o.Start) }

// Options configures a [Machine].
type Options struct {
	LockWindow time.Duration    `toml:"-"`
	Clock      func() time.Time `toml:"-"`
	Logger     *log.Logger      `toml:"-"`
}

// Machine is the drag state machine of one editor. It is not safe for
// concurrent use.
type Machine struct {
	lockWindow time.Duration
	now        func() time.Time
	logger     *log.Logger
	session    Session

	// lockedID is the object of the last finished gesture.
	lockedID string
}

// New creates an idle machine.
func New(opts Options) *Machine {
	m := &Machine{
		lockWindow: opts.LockWindow,
		now:        opts.Clock,
		logger:     opts.Logger,
	}
	if m.lockWindow <= 0 {
		m.lockWindow = DefaultLockWindow
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.session.State }

// Active reports whether a gesture is in progress.
func (m *Machine) Active() bool { return m.session.State != Idle }

// Session returns a copy of the current session.
func (m *Machine) Session() Session { return m.session }

func (m *Machine) reject(op, reason string) bool {
	m.logger.Warn("drag transition rejected",
		"op", op, "state", m.session.State, "reason", reason, "class", errors.ErrCodeInvalidTransition.Class())
	observability.Drag().OnDragRejected(op, reason)
	return false
}

// StartDrag begins a gesture. It fails while another gesture is active or
// the operation lock is held.
func (m *Machine) StartDrag(kind Kind, obj Object) bool {
	now := m.now()
	if m.session.State != Idle {
		return m.reject("start", "gesture already active")
	}
	if obj.ID == m.lockedID && now.Before(m.session.LockExpiresAt) {
		return m.reject("start", "operation locked")
	}
	if obj.ID == "" {
		return m.reject("start", "missing object id")
	}
	m.session = Session{
		State:         Dragging,
		Kind:          kind,
		Object:        obj,
		StartedAt:     now,
		LockExpiresAt: now.Add(m.lockWindow),
	}
	m.logger.Debug("drag started", "kind", kind, "object", obj.ID)
	observability.Drag().OnDragStart(kind.String(), obj.ID)
	return true
}

// SetDragStartPosition records where the gesture began.
func (m *Machine) SetDragStartPosition(p geom.Point) bool {
	if m.session.State == Idle {
		return m.reject("set_start", "no active gesture")
	}
	m.session.StartPosition = &p
	m.session.CurrentPosition = p
	return true
}

// UpdateDragPosition records the pointer position.
func (m *Machine) UpdateDragPosition(p geom.Point) bool {
	if m.session.State == Idle {
		return m.reject("update", "no active gesture")
	}
	if m.session.StartPosition == nil {
		start := p
		m.session.StartPosition = &start
	}
	m.session.CurrentPosition = p
	return true
}

// StartSnapping marks a drop target under the pointer. Only valid while
// Dragging.
func (m *Machine) StartSnapping(target string, meta map[string]any) bool {
	if m.session.State != Dragging {
		return m.reject("snap", "not dragging")
	}
	m.session.State = Snapping
	m.session.Target = target
	m.session.SnapMeta = meta
	return true
}

// StopSnapping clears the drop target and returns to Dragging.
func (m *Machine) StopSnapping() bool {
	if m.session.State != Snapping {
		return m.reject("unsnap", "not snapping")
	}
	m.session.State = Dragging
	m.session.Target = ""
	m.session.SnapMeta = nil
	return true
}

// EndDrag finishes the gesture and returns how it ended. Ending while Idle
// returns false. The session is cleared immediately and the finished object
// is locked for LockWindow so a duplicated start for it is absorbed.
func (m *Machine) EndDrag(result Result) (Outcome, bool) {
	if m.session.State == Idle {
		m.reject("end", "no active gesture")
		return Outcome{}, false
	}
	now := m.now()
	s := m.session
	out := Outcome{
		Kind:     s.Kind,
		Object:   s.Object,
		End:      s.CurrentPosition,
		Target:   s.Target,
		SnapMeta: s.SnapMeta,
		Result:   result,
		Duration: now.Sub(s.StartedAt),
	}
	if s.StartPosition != nil {
		out.Start = *s.StartPosition
	} else {
		out.Start = s.CurrentPosition
	}

	m.session = Session{LockExpiresAt: now.Add(m.lockWindow)}
	m.lockedID = out.Object.ID
	m.logger.Debug("drag ended", "kind", out.Kind, "object", out.Object.ID, "result", result, "target", out.Target)
	observability.Drag().OnDragEnd(out.Kind.String(), out.Object.ID, out.Duration)
	return out, true
}

// Reset discards the session and the operation lock.
func (m *Machine) Reset() {
	m.session = Session{}
	m.lockedID = ""
}

// Destroy releases all state.
func (m *Machine) Destroy() {
	m.Reset()
}
