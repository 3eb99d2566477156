package spatial

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/geom"
)

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equal(a, b []string) bool {
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

func TestAddQueryRemove(t *testing.T) {
	x := New(DefaultOptions())

	x.AddItem("a", geom.Rect{X: 0, Y: 0, Width: 50, Height: 50}, nil)
	x.AddItem("b", geom.Rect{X: 250, Y: 250, Width: 50, Height: 50}, nil)
	x.AddItem("c", geom.Rect{X: 90, Y: 90, Width: 30, Height: 30}, nil)

	tests := []struct {
		name   string
		region geom.Rect
		want   []string
	}{
		{"top left", geom.Rect{X: 0, Y: 0, Width: 100, Height: 100}, []string{"a", "c"}},
		{"touching edge", geom.Rect{X: 50, Y: 0, Width: 10, Height: 10}, []string{"a"}},
		{"far away", geom.Rect{X: 1000, Y: 1000, Width: 10, Height: 10}, nil},
		{"everything", geom.Rect{X: -10, Y: -10, Width: 400, Height: 400}, []string{"a", "b", "c"}},
		{"negative extent", geom.Rect{X: 300, Y: 300, Width: -60, Height: -60}, []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(x.QueryRegion(tt.region))
			if !equal(got, tt.want) {
				t.Errorf("QueryRegion() = %v, want %v", got, tt.want)
			}
		})
	}

	if !x.RemoveItem("c") {
		t.Error("RemoveItem(c) = false, want true")
	}
	if x.RemoveItem("c") {
		t.Error("RemoveItem(c) twice = true, want false")
	}
	if got := ids(x.QueryRegion(geom.Rect{X: 0, Y: 0, Width: 100, Height: 100})); !equal(got, []string{"a"}) {
		t.Errorf("QueryRegion() after remove = %v, want [a]", got)
	}
}

func TestRemoveDropsEmptyCells(t *testing.T) {
	x := New(DefaultOptions())
	x.AddItem("wide", geom.Rect{X: 0, Y: 0, Width: 250, Height: 10}, nil)
	if x.CellCount() != 3 {
		t.Errorf("CellCount() = %d, want 3", x.CellCount())
	}
	x.RemoveItem("wide")
	if x.CellCount() != 0 {
		t.Errorf("CellCount() after remove = %d, want 0", x.CellCount())
	}
}

func TestAddItemReplaces(t *testing.T) {
	x := New(DefaultOptions())
	x.AddItem("a", geom.Rect{X: 0, Y: 0, Width: 10, Height: 10}, nil)
	x.AddItem("a", geom.Rect{X: 500, Y: 500, Width: 10, Height: 10}, nil)

	if x.Len() != 1 {
		t.Errorf("Len() = %d, want 1", x.Len())
	}
	if got := x.QueryPoint(5, 5, 1); len(got) != 0 {
		t.Errorf("old position still indexed: %v", ids(got))
	}
	if got := x.QueryPoint(505, 505, 1); !equal(ids(got), []string{"a"}) {
		t.Errorf("QueryPoint() = %v, want [a]", ids(got))
	}
}

func TestAddItemRejectsInvalid(t *testing.T) {
	x := New(DefaultOptions())
	if err := x.AddItem("", geom.Rect{}, nil); err == nil {
		t.Error("AddItem with empty id should fail")
	}
	nan := geom.Rect{X: math.NaN(), Y: 0, Width: 1, Height: 1}
	if err := x.AddItem("n", nan, nil); err == nil {
		t.Error("AddItem with NaN bounds should fail")
	}
	if x.Len() != 0 {
		t.Errorf("Len() = %d, want 0", x.Len())
	}
}

func TestUpdateItem(t *testing.T) {
	x := New(DefaultOptions())
	r := geom.Rect{X: 0, Y: 0, Width: 10, Height: 10}
	x.AddItem("a", r, map[string]any{"type": "sms"})

	// Same bounds merges data.
	x.UpdateItem("a", r, map[string]any{"hover": true})
	it, _ := x.Get("a")
	if it.Data["type"] != "sms" || it.Data["hover"] != true {
		t.Errorf("Data = %v, want merged map", it.Data)
	}

	// New bounds re-inserts and keeps data.
	moved := geom.Rect{X: 300, Y: 0, Width: 10, Height: 10}
	x.UpdateItem("a", moved, nil)
	it, _ = x.Get("a")
	if it.Bounds != moved {
		t.Errorf("Bounds = %v, want %v", it.Bounds, moved)
	}
	if it.Data["type"] != "sms" {
		t.Errorf("Data lost on move: %v", it.Data)
	}
	if len(x.QueryPoint(5, 5, 1)) != 0 {
		t.Error("old cells should be empty after move")
	}

	// Unknown id adds.
	x.UpdateItem("b", r, nil)
	if x.Len() != 2 {
		t.Errorf("Len() = %d, want 2", x.Len())
	}
}

func TestQueryNearest(t *testing.T) {
	x := New(DefaultOptions())
	x.AddItem("near", geom.Rect{X: 90, Y: 90, Width: 20, Height: 20}, map[string]any{"kind": "hint"})
	x.AddItem("mid", geom.Rect{X: 130, Y: 90, Width: 20, Height: 20}, map[string]any{"kind": "node"})
	x.AddItem("far", geom.Rect{X: 900, Y: 900, Width: 20, Height: 20}, map[string]any{"kind": "node"})

	it, ok := x.QueryNearest(100, 100, 50, nil)
	if !ok || it.ID != "near" {
		t.Errorf("QueryNearest() = %v, %v, want near", it.ID, ok)
	}

	onlyNodes := func(it Item) bool { return it.Data["kind"] == "node" }
	it, ok = x.QueryNearest(100, 100, 50, onlyNodes)
	if !ok || it.ID != "mid" {
		t.Errorf("QueryNearest(filter) = %v, %v, want mid", it.ID, ok)
	}

	if _, ok := x.QueryNearest(100, 100, 30, onlyNodes); ok {
		t.Error("QueryNearest() should respect maxDistance")
	}

	// Expanding radius finds far items.
	it, ok = x.QueryNearest(700, 700, 400, nil)
	if !ok || it.ID != "far" {
		t.Errorf("QueryNearest(expanding) = %v, %v, want far", it.ID, ok)
	}

	empty := New(DefaultOptions())
	if _, ok := empty.QueryNearest(0, 0, 100, nil); ok {
		t.Error("QueryNearest() on empty index should miss")
	}
}

func TestCheckGridResize(t *testing.T) {
	t.Run("dense halves", func(t *testing.T) {
		x := New(Options{GridSize: 100, MaxItemsPerCell: 2})
		for i := 0; i < 10; i++ {
			x.AddItem(fmt.Sprintf("n%d", i), geom.Rect{X: 10, Y: 10, Width: 5, Height: 5}, nil)
		}
		if !x.CheckGridResize() {
			t.Fatal("CheckGridResize() = false, want true")
		}
		if x.GridSize() != 50 {
			t.Errorf("GridSize() = %v, want 50", x.GridSize())
		}
		if x.Len() != 10 {
			t.Errorf("Len() after rebuild = %d, want 10", x.Len())
		}
	})

	t.Run("sparse doubles", func(t *testing.T) {
		x := New(Options{GridSize: 100, MaxItemsPerCell: 10})
		x.AddItem("a", geom.Rect{X: 0, Y: 0, Width: 5, Height: 5}, nil)
		if !x.CheckGridResize() {
			t.Fatal("CheckGridResize() = false, want true")
		}
		if x.GridSize() != 200 {
			t.Errorf("GridSize() = %v, want 200", x.GridSize())
		}
		if got := ids(x.QueryPoint(2, 2, 1)); !equal(got, []string{"a"}) {
			t.Errorf("QueryPoint() after rebuild = %v, want [a]", got)
		}
	})

	t.Run("bounded", func(t *testing.T) {
		x := New(Options{GridSize: 100, MaxGridSize: 100, MaxItemsPerCell: 10})
		x.AddItem("a", geom.Rect{X: 0, Y: 0, Width: 5, Height: 5}, nil)
		if x.CheckGridResize() {
			t.Error("CheckGridResize() should not exceed MaxGridSize")
		}
	})

	t.Run("empty", func(t *testing.T) {
		x := New(DefaultOptions())
		if x.CheckGridResize() {
			t.Error("CheckGridResize() on empty index = true, want false")
		}
	})
}

// Region queries must agree with a brute-force scan for any layout.
func TestQueryRegionMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := New(Options{GridSize: 64})
	var all []Item

	for i := 0; i < 300; i++ {
		r := geom.Rect{
			X:      rng.Float64()*2000 - 1000,
			Y:      rng.Float64()*2000 - 1000,
			Width:  rng.Float64() * 150,
			Height: rng.Float64() * 150,
		}
		id := fmt.Sprintf("item-%03d", i)
		x.AddItem(id, r, nil)
		all = append(all, Item{ID: id, Bounds: r})
	}
	x.CheckGridResize()

	for q := 0; q < 100; q++ {
		region := geom.Rect{
			X:      rng.Float64()*2000 - 1000,
			Y:      rng.Float64()*2000 - 1000,
			Width:  rng.Float64() * 400,
			Height: rng.Float64() * 400,
		}
		var want []string
		for _, it := range all {
			if it.Bounds.Intersects(region) {
				want = append(want, it.ID)
			}
		}
		sort.Strings(want)
		if got := ids(x.QueryRegion(region)); !equal(got, want) {
			t.Fatalf("QueryRegion(%v) = %v, want %v", region, got, want)
		}
	}
}

func TestClear(t *testing.T) {
	x := New(DefaultOptions())
	x.AddItem("a", geom.Rect{Width: 10, Height: 10}, nil)
	x.Clear()
	if x.Len() != 0 || x.CellCount() != 0 {
		t.Errorf("Len(), CellCount() = %d, %d, want 0, 0", x.Len(), x.CellCount())
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("DefaultOptions().Validate() = %v", err)
	}
	bad := DefaultOptions()
	bad.GridSize = 0
	if err := bad.Validate(); err == nil {
		t.Error("Validate() should reject zero grid size")
	}
	bad = DefaultOptions()
	bad.SparseFactor = 3
	if err := bad.Validate(); err == nil {
		t.Error("Validate() should reject sparse >= dense")
	}
}

func TestHugeQueriesStayBounded(t *testing.T) {
	x := New(DefaultOptions())
	x.AddItem("a", geom.Rect{X: 0, Y: 0, Width: 50, Height: 50}, nil)
	x.AddItem("far", geom.Rect{X: 5000, Y: -3000, Width: 50, Height: 50}, nil)

	if _, ok := x.QueryNearest(0, 0, 1e9, func(Item) bool { return false }); ok {
		t.Error("QueryNearest() with rejecting filter found an item")
	}

	it, ok := x.QueryNearest(4000, -2000, math.Inf(1), func(it Item) bool { return it.ID == "far" })
	if !ok || it.ID != "far" {
		t.Errorf("QueryNearest(+Inf) = %v, %v, want far", it.ID, ok)
	}

	all := x.QueryRegion(geom.Rect{X: -1e12, Y: -1e12, Width: 2e12, Height: 2e12})
	if got, want := ids(all), []string{"a", "far"}; !equal(got, want) {
		t.Errorf("QueryRegion(huge) = %v, want %v", got, want)
	}
}

func TestNonFiniteQueries(t *testing.T) {
	x := New(DefaultOptions())
	x.AddItem("a", geom.Rect{X: 0, Y: 0, Width: 50, Height: 50}, nil)

	tests := []struct {
		name string
		r    geom.Rect
	}{
		{"nan origin", geom.Rect{X: math.NaN(), Width: 10, Height: 10}},
		{"infinite width", geom.Rect{Width: math.Inf(1), Height: 10}},
		{"negative infinity", geom.Rect{X: math.Inf(-1), Width: 10, Height: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := x.QueryRegion(tt.r); len(got) != 0 {
				t.Errorf("QueryRegion() = %v, want none", ids(got))
			}
		})
	}

	if _, ok := x.QueryNearest(math.NaN(), 0, 100, nil); ok {
		t.Error("QueryNearest(NaN) found an item")
	}
}
