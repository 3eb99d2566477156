// Package branch derives the labelled outputs of workflow nodes.
//
// Each node type maps to a [Handler] in a [Registry]. A handler says whether
// the type needs configuration before it can offer outputs, whether it is
// terminal, and, for branching types, how to derive its branches from the
// node configuration. A configurable type without configuration has no
// branches at all; there are no placeholder defaults.
package branch

import (
	"fmt"
	"sort"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
)

// Handler describes how one node type produces outputs.
type Handler struct {
	// Branches derives the branch list. Nil marks a single-output type.
	Branches func(cfg *canvas.Config) []canvas.Branch

	// RequiresConfig means the node offers no outputs until it is configured.
	RequiresConfig bool

	// Terminal types have no outputs.
	Terminal bool

	// Artifact types are drawn by the editor and never connect.
	Artifact bool

	// Droppable types accept incoming connections.
	Droppable bool
}

// Branching reports whether the handler derives branches.
func (h Handler) Branching() bool { return h.Branches != nil }

// Registry maps node types to handlers.
type Registry struct {
	handlers map[canvas.NodeType]Handler
	fallback Handler
}

// NewRegistry creates an empty registry whose fallback handler treats
// unknown types as configurable single-output nodes.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[canvas.NodeType]Handler),
		fallback: Handler{RequiresConfig: true, Droppable: true},
	}
}

// DefaultRegistry returns the registry for the built-in node types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	action := Handler{RequiresConfig: true, Droppable: true}

	r.Register(canvas.TypeStart, Handler{})
	r.Register(canvas.TypeEnd, Handler{Terminal: true, Droppable: true})
	r.Register(canvas.TypeFinish, Handler{Terminal: true, Droppable: true})

	audience := Handler{Branches: audienceBranches, RequiresConfig: true, Droppable: true}
	r.Register(canvas.TypeAudienceSplit, audience)
	r.Register(canvas.TypeCrowdSplit, audience)
	r.Register(canvas.TypeEventSplit, Handler{Branches: eventBranches, RequiresConfig: true, Droppable: true})
	r.Register(canvas.TypeABTest, Handler{Branches: abTestBranches, RequiresConfig: true, Droppable: true})

	for _, t := range []canvas.NodeType{
		canvas.TypeSMS, canvas.TypeEmail, canvas.TypeWechat, canvas.TypeAICall,
		canvas.TypeManualCall, canvas.TypeBenefit, canvas.TypeWait, canvas.TypeTask,
	} {
		r.Register(t, action)
	}

	r.Register(canvas.TypeEndpoint, Handler{Artifact: true})
	r.Register(canvas.TypeDragHint, Handler{Artifact: true})
	return r
}

// Register installs or replaces the handler for a type.
func (r *Registry) Register(t canvas.NodeType, h Handler) {
	r.handlers[t] = h
}

// Lookup returns the handler for a type, or the fallback for unknown types.
func (r *Registry) Lookup(t canvas.NodeType) Handler {
	if h, ok := r.handlers[t]; ok {
		return h
	}
	return r.fallback
}

// Known reports whether a handler is registered for t.
func (r *Registry) Known(t canvas.NodeType) bool {
	_, ok := r.handlers[t]
	return ok
}

// Types returns the registered types in sorted order.
func (r *Registry) Types() []canvas.NodeType {
	out := make([]canvas.NodeType, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// =============================================================================
// Built-in branch handlers
// =============================================================================

// Default id of the catch-all audience branch.
const UnmatchBranchID = "unmatch_default"

func audienceBranches(cfg *canvas.Config) []canvas.Branch {
	if cfg == nil || len(cfg.CrowdLayers) == 0 {
		return nil
	}
	out := make([]canvas.Branch, 0, len(cfg.CrowdLayers)+1)
	for i, layer := range cfg.CrowdLayers {
		b := canvas.Branch{
			ID:            layer.ID,
			Label:         layer.Name,
			Order:         layer.Order,
			SourceCrowdID: layer.CrowdID,
		}
		if b.ID == "" {
			b.ID = fmt.Sprintf("audience_%d", i)
		}
		if b.Label == "" {
			b.Label = fmt.Sprintf("Audience %d", i+1)
		}
		if b.Order == 0 {
			b.Order = i + 1
		}
		if b.SourceCrowdID == "" {
			b.SourceCrowdID = layer.ID
		}
		out = append(out, b)
	}
	if u := cfg.Unmatch; u != nil {
		b := canvas.Branch{
			ID:            u.ID,
			Label:         u.Name,
			Order:         len(out) + 1,
			IsDefault:     true,
			SourceCrowdID: u.CrowdID,
		}
		if b.ID == "" {
			b.ID = UnmatchBranchID
		}
		if b.Label == "" {
			b.Label = "Unmatched"
		}
		out = append(out, b)
	}
	return out
}

// Ids of the two event split branches.
const (
	EventYesBranchID = "event_yes"
	EventNoBranchID  = "event_no"
)

func eventBranches(cfg *canvas.Config) []canvas.Branch {
	if cfg == nil {
		return nil
	}
	if cfg.EventCondition == "" && cfg.YesLabel == "" && cfg.NoLabel == "" && !cfg.IsConfigured {
		return nil
	}
	return []canvas.Branch{
		{ID: EventYesBranchID, Label: orDefault(cfg.YesLabel, "Yes"), Order: 1},
		{ID: EventNoBranchID, Label: orDefault(cfg.NoLabel, "No"), Order: 2},
	}
}

// Ids of the two implicit A/B groups.
const (
	GroupABranchID = "group_a"
	GroupBBranchID = "group_b"
)

func abTestBranches(cfg *canvas.Config) []canvas.Branch {
	if cfg == nil {
		return nil
	}
	if len(cfg.Versions) > 0 {
		out := make([]canvas.Branch, len(cfg.Versions))
		for i, v := range cfg.Versions {
			out[i] = canvas.Branch{
				ID:    v.ID,
				Label: v.Name,
				Order: i + 1,
				Ratio: v.Ratio,
			}
			if out[i].ID == "" {
				out[i].ID = fmt.Sprintf("version_%d", i)
			}
			if out[i].Label == "" {
				out[i].Label = fmt.Sprintf("Version %d", i+1)
			}
		}
		return out
	}
	if cfg.GroupALabel == "" && cfg.GroupBLabel == "" && cfg.GroupARatio == 0 && cfg.GroupBRatio == 0 {
		return nil
	}
	return []canvas.Branch{
		{ID: GroupABranchID, Label: orDefault(cfg.GroupALabel, "Group A"), Order: 1, Ratio: orDefaultRatio(cfg.GroupARatio)},
		{ID: GroupBBranchID, Label: orDefault(cfg.GroupBLabel, "Group B"), Order: 2, Ratio: orDefaultRatio(cfg.GroupBRatio)},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultRatio(r float64) float64 {
	if r == 0 {
		return 50
	}
	return r
}
