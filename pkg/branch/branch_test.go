package branch

import (
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
)

func branchIDs(bs []canvas.Branch) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBranchesOf(t *testing.T) {
	r := NewResolver(nil, ResolverOptions{})
	defer r.Destroy()

	tests := []struct {
		name string
		node *canvas.Node
		want []string
	}{
		{
			name: "audience split with unmatched",
			node: &canvas.Node{ID: "a", Type: canvas.TypeAudienceSplit, Config: &canvas.Config{
				CrowdLayers: []canvas.CrowdLayer{{ID: "vip", Name: "VIP"}, {Name: "New"}},
				Unmatch:     &canvas.UnmatchBranch{},
			}},
			want: []string{"vip", "audience_1", UnmatchBranchID},
		},
		{
			name: "audience split unconfigured",
			node: &canvas.Node{ID: "a2", Type: canvas.TypeAudienceSplit},
			want: []string{},
		},
		{
			name: "audience split flagged configured but empty",
			node: &canvas.Node{ID: "a3", Type: canvas.TypeAudienceSplit, Config: &canvas.Config{IsConfigured: true}},
			want: []string{},
		},
		{
			name: "event split",
			node: &canvas.Node{ID: "e", Type: canvas.TypeEventSplit, Config: &canvas.Config{EventCondition: "opened"}},
			want: []string{EventYesBranchID, EventNoBranchID},
		},
		{
			name: "event split empty config",
			node: &canvas.Node{ID: "e2", Type: canvas.TypeEventSplit, Config: &canvas.Config{}},
			want: []string{},
		},
		{
			name: "ab test versions",
			node: &canvas.Node{ID: "ab", Type: canvas.TypeABTest, Config: &canvas.Config{
				Versions: []canvas.Version{{Name: "control"}, {ID: "v2", Name: "variant"}, {}},
			}},
			want: []string{"version_0", "v2", "version_2"},
		},
		{
			name: "ab test groups",
			node: &canvas.Node{ID: "ab2", Type: canvas.TypeABTest, Config: &canvas.Config{GroupARatio: 30}},
			want: []string{GroupABranchID, GroupBBranchID},
		},
		{
			name: "single output",
			node: &canvas.Node{ID: "s", Type: canvas.TypeSMS, Configured: true},
			want: []string{},
		},
		{
			name: "terminal",
			node: &canvas.Node{ID: "end", Type: canvas.TypeEnd},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := branchIDs(r.BranchesOf(tt.node))
			if !sameIDs(got, tt.want) {
				t.Errorf("BranchesOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBranchLabels(t *testing.T) {
	r := NewResolver(nil, ResolverOptions{})
	defer r.Destroy()

	n := &canvas.Node{ID: "e", Type: canvas.TypeEventSplit, Config: &canvas.Config{YesLabel: "Clicked"}}
	bs := r.BranchesOf(n)
	if bs[0].Label != "Clicked" || bs[1].Label != "No" {
		t.Errorf("labels = %q, %q, want Clicked, No", bs[0].Label, bs[1].Label)
	}

	ab := &canvas.Node{ID: "ab", Type: canvas.TypeABTest, Config: &canvas.Config{GroupBLabel: "B"}}
	bs = r.BranchesOf(ab)
	if bs[0].Label != "Group A" || bs[1].Label != "B" || bs[0].Ratio != 50 {
		t.Errorf("groups = %+v", bs)
	}

	aud := &canvas.Node{ID: "a", Type: canvas.TypeAudienceSplit, Config: &canvas.Config{
		CrowdLayers: []canvas.CrowdLayer{{ID: "x", Name: "X", CrowdID: "c-1"}},
		Unmatch:     &canvas.UnmatchBranch{Name: "Everyone else"},
	}}
	bs = r.BranchesOf(aud)
	if bs[0].SourceCrowdID != "c-1" {
		t.Errorf("SourceCrowdID = %q, want c-1", bs[0].SourceCrowdID)
	}
	if !bs[1].IsDefault || bs[1].Label != "Everyone else" || bs[1].Order != 2 {
		t.Errorf("unmatched branch = %+v", bs[1])
	}
}

func TestBranchesFollowConfigChanges(t *testing.T) {
	r := NewResolver(nil, ResolverOptions{})
	defer r.Destroy()

	n := &canvas.Node{ID: "ab", Type: canvas.TypeABTest, Config: &canvas.Config{
		Versions: []canvas.Version{{ID: "a"}, {ID: "b"}},
	}}
	if got := len(r.BranchesOf(n)); got != 2 {
		t.Fatalf("BranchesOf() = %d branches, want 2", got)
	}

	n.Config = &canvas.Config{Versions: []canvas.Version{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	if got := len(r.BranchesOf(n)); got != 3 {
		t.Errorf("BranchesOf() after reconfigure = %d branches, want 3", got)
	}

	r.Invalidate("ab")
	if !r.HasBranch(n, "c") {
		t.Error("HasBranch(c) = false after Invalidate, want true")
	}
	if r.HasBranch(n, "zzz") {
		t.Error("HasBranch(zzz) = true, want false")
	}
}

func TestReady(t *testing.T) {
	r := NewResolver(nil, ResolverOptions{})
	defer r.Destroy()

	tests := []struct {
		name string
		node *canvas.Node
		want bool
	}{
		{"nil", nil, false},
		{"start", &canvas.Node{ID: "s", Type: canvas.TypeStart}, true},
		{"unconfigured sms", &canvas.Node{ID: "m", Type: canvas.TypeSMS}, false},
		{"configured sms", &canvas.Node{ID: "m", Type: canvas.TypeSMS, Configured: true}, true},
		{"end", &canvas.Node{ID: "e", Type: canvas.TypeEnd, Configured: true}, false},
		{"endpoint artifact", &canvas.Node{ID: "x", Type: canvas.TypeEndpoint, Configured: true}, false},
		{"drag hint", &canvas.Node{ID: "h", Type: canvas.TypeDragHint}, false},
		{"unknown configured", &canvas.Node{ID: "u", Type: "custom", Configured: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Ready(tt.node); got != tt.want {
				t.Errorf("Ready() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	if !reg.Known(canvas.TypeEventSplit) {
		t.Error("event-split should be registered")
	}
	if reg.Known("custom") {
		t.Error("custom should not be registered")
	}
	if !reg.Lookup("custom").RequiresConfig {
		t.Error("fallback handler should require configuration")
	}

	reg.Register("custom", Handler{Terminal: true})
	if !reg.Lookup("custom").Terminal {
		t.Error("Register should override the fallback")
	}

	types := reg.Types()
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Fatalf("Types() not sorted: %v", types)
		}
	}
}
