// Package scene reads and writes canvas snapshots and recorded event
// scripts as TOML.
//
// A scene lists nodes, connections and dangling previews; an optional list
// of events replays a user session against it:
//
//	name = "onboarding"
//
//	[[node]]
//	id = "split"
//	type = "audience-split"
//	x = 0
//	y = 0
//	configured = true
//
//	[[node.config.crowd_layers]]
//	id = "vip"
//	name = "VIP"
//
//	[[connection]]
//	source = "start"
//	target = "split"
//
//	[[event]]
//	type = "node_drag_start"
//	node = "split"
//	x = 50
//	y = 50
//	at_ms = 0
//
// Missing edge ids are generated.
package scene

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/editor"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
)

// File is the on-disk form of a scene.
type File struct {
	Name        string       `toml:"name,omitempty"`
	Nodes       []Node       `toml:"node"`
	Connections []Connection `toml:"connection,omitempty"`
	Previews    []Preview    `toml:"preview,omitempty"`
	Events      []Event      `toml:"event,omitempty"`
}

// Node is a node entry. Position is the top-left corner.
type Node struct {
	ID         string         `toml:"id"`
	Type       string         `toml:"type"`
	X          float64        `toml:"x"`
	Y          float64        `toml:"y"`
	Width      float64        `toml:"width,omitempty"`
	Height     float64        `toml:"height,omitempty"`
	Configured bool           `toml:"configured,omitempty"`
	Config     *canvas.Config `toml:"config,omitempty"`
}

// Connection is a committed edge entry.
type Connection struct {
	ID     string `toml:"id,omitempty"`
	Source string `toml:"source"`
	Target string `toml:"target"`
	Branch string `toml:"branch,omitempty"`
	Label  string `toml:"label,omitempty"`
}

// Preview is a dangling edge entry; X and Y locate its free end.
type Preview struct {
	ID     string  `toml:"id,omitempty"`
	Source string  `toml:"source"`
	Branch string  `toml:"branch,omitempty"`
	Label  string  `toml:"label,omitempty"`
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
}

// Event is a recorded input. AtMS is the offset from the start of the
// recording.
type Event struct {
	Type string  `toml:"type"`
	Node string  `toml:"node,omitempty"`
	Edge string  `toml:"edge,omitempty"`
	X    float64 `toml:"x,omitempty"`
	Y    float64 `toml:"y,omitempty"`
	AtMS int64   `toml:"at_ms"`
}

// Load reads a scene file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a scene.
func Decode(r io.Reader) (*File, error) {
	var f File
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse scene")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown scene key %s", undecoded[0])
	}
	return &f, nil
}

// Write encodes the scene as TOML.
func (f *File) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(f)
}

// Save writes the scene to path, replacing any existing file.
func (f *File) Save(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return fmt.Errorf("write scene: %w", err)
	}
	return out.Close()
}

// Surface builds an in-memory surface from the scene. Entries are added in
// file order; a preview or connection referring to an unknown node fails.
func (f *File) Surface() (*canvas.MemorySurface, error) {
	s := canvas.NewMemorySurface()
	for i, n := range f.Nodes {
		node := &canvas.Node{
			ID:         n.ID,
			Type:       canvas.NodeType(n.Type),
			Position:   geom.Point{X: n.X, Y: n.Y},
			Size:       geom.Size{Width: n.Width, Height: n.Height},
			Config:     n.Config,
			Configured: n.Configured,
		}
		if err := s.AddNode(node); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "node %d", i)
		}
	}
	for i, c := range f.Connections {
		conn := &canvas.Connection{
			ID:       orNewID(c.ID),
			Source:   canvas.PortRef{NodeID: c.Source, Port: canvas.PortOut},
			Target:   canvas.PortRef{NodeID: c.Target, Port: canvas.PortIn},
			BranchID: c.Branch,
			Label:    c.Label,
		}
		if err := s.AddEdge(conn); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "connection %d", i)
		}
	}
	for i, p := range f.Previews {
		pe := &canvas.PreviewEdge{
			ID:       orNewID(p.ID),
			Source:   canvas.PortRef{NodeID: p.Source, Port: canvas.PortOut},
			BranchID: p.Branch,
			Label:    p.Label,
			End:      geom.Point{X: p.X, Y: p.Y},
		}
		if err := s.AddEdge(pe); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "preview %d", i)
		}
	}
	return s, nil
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// FromSurface snapshots a surface. Nodes and edges keep the surface order.
func FromSurface(name string, s canvas.Surface) *File {
	f := &File{Name: name}
	for _, n := range s.Nodes() {
		f.Nodes = append(f.Nodes, Node{
			ID:         n.ID,
			Type:       string(n.Type),
			X:          n.Position.X,
			Y:          n.Position.Y,
			Width:      n.Size.Width,
			Height:     n.Size.Height,
			Configured: n.Configured,
			Config:     n.Config,
		})
	}
	for _, e := range s.Edges() {
		switch e := e.(type) {
		case *canvas.Connection:
			f.Connections = append(f.Connections, Connection{
				ID: e.ID, Source: e.Source.NodeID, Target: e.Target.NodeID, Branch: e.BranchID, Label: e.Label,
			})
		case *canvas.PreviewEdge:
			f.Previews = append(f.Previews, Preview{
				ID: e.ID, Source: e.Source.NodeID, Branch: e.BranchID, Label: e.Label, X: e.End.X, Y: e.End.Y,
			})
		}
	}
	return f
}

// Hash identifies the geometry and wiring of the scene, ignoring its name
// and events.
func (f *File) Hash() string {
	return cache.HashValue(struct {
		Nodes       []Node
		Connections []Connection
		Previews    []Preview
	}{f.Nodes, f.Connections, f.Previews})
}

// EditorEvents converts the recorded events, anchoring offsets at base.
func (f *File) EditorEvents(base time.Time) []editor.Event {
	out := make([]editor.Event, len(f.Events))
	for i, ev := range f.Events {
		out[i] = editor.Event{
			Type:     editor.EventType(ev.Type),
			NodeID:   ev.Node,
			EdgeID:   ev.Edge,
			Position: geom.Point{X: ev.X, Y: ev.Y},
			At:       base.Add(time.Duration(ev.AtMS) * time.Millisecond),
		}
	}
	return out
}
