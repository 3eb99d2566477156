// Package pkg provides the libraries of the flowcanvas workflow editor engine.
//
// # Overview
//
// flowcanvas is the layout and connection engine behind a drag-and-drop
// marketing workflow editor. The host (a browser canvas, a test harness, the
// canvasctl CLI) owns rendering; the engine decides where things go and which
// connections are legal. The pkg directory is organized into four areas:
//
//  1. Model - [canvas] nodes, edges and the Surface the host implements
//  2. Engine - [drag], [spatial], [layout], [branch], [connect]
//  3. Facade - [editor] turns host events into host commands
//  4. Support - [cache], [config], [errors], [observability], [scene]
//
// # Architecture
//
// One pointer gesture flows through the engine like this:
//
//	host event (preview_drag_start, pointer_move, pointer_up)
//	         ↓
//	    [editor] (clock, menu timers, dispatch)
//	         ↓
//	    [drag] state machine (idle → dragging → snapping → idle)
//	         ↓
//	    [spatial] index (nearest droppable node under the pointer)
//	         ↓
//	    [connect] controller (validate, commit, clean up preview lines)
//	         ↓
//	host commands (preview_moved, highlight_target, connection_created)
//
// # Quick Start
//
// Wire an editor over an in-memory surface and drop a preview line:
//
//	import (
//	    "github.com/matzehuels/flowcanvas/pkg/canvas"
//	    "github.com/matzehuels/flowcanvas/pkg/editor"
//	    "github.com/matzehuels/flowcanvas/pkg/geom"
//	)
//
//	s := canvas.NewMemorySurface()
//	_ = s.AddNode(&canvas.Node{ID: "sms", Type: canvas.TypeSMS, Configured: true})
//	_ = s.AddNode(&canvas.Node{ID: "end", Type: canvas.TypeEnd, Position: geom.Point{Y: 300}})
//
//	ed, _ := editor.New(s, editor.Options{})
//	cmds, _ := ed.Handle(editor.Event{Type: editor.EventNodeAdded, NodeID: "sms"})
//
// # Main Packages
//
// [drag] - Interaction state machine with an operation lock that absorbs
// duplicate start and end callbacks of one gesture.
//
// [spatial] - Uniform grid index over node bounds with nearest and rectangle
// queries. The cell size adapts to the node density.
//
// [layout] - Symmetric distribution of a layer of nodes and endpoints, and
// depth-based layering of a whole surface.
//
// [branch] - Output branches per node type (audience split, event split,
// A/B test), memoised per configuration.
//
// [connect] - Preview lines, connection validation and creation, overlap
// detection and repair, snap target lookup.
//
// [cache] - Typed TTL+LRU cache for derived data, and byte-level snapshot
// backends (memory, file, redis, null).
//
// [scene] - TOML snapshots of a canvas with an optional recorded event
// script, used by canvasctl.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/connect/...            # Specific package
//
// [canvas]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/canvas
// [drag]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/drag
// [spatial]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/spatial
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/layout
// [branch]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/branch
// [connect]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/connect
// [editor]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/editor
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/observability
// [scene]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/scene
package pkg
