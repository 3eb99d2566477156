// Package spatial implements a uniform-grid index over axis-aligned
// rectangles for proximity and overlap queries on the canvas.
//
// The plane is partitioned into square cells of GridSize pixels. Cell (i, j)
// covers x in [i*GridSize, (i+1)*GridSize) and likewise for y. An item is
// stored in every cell its bounds touch, so a region query only inspects the
// cells the region covers and then applies an exact intersection test.
//
// Intersection is inclusive: rectangles that share only an edge or a corner
// intersect. Snapping and overlap detection rely on that.
//
// The grid adapts to density. [Index.CheckGridResize] halves the cell size
// when cells are crowded and doubles it when they are sparse, then rebuilds.
package spatial

import (
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
)

// Default option values.
const (
	DefaultGridSize        = 100
	DefaultMaxItemsPerCell = 10
	DefaultMinGridSize     = 25
	DefaultMaxGridSize     = 400
	DefaultDenseFactor     = 2.0
	DefaultSparseFactor    = 0.25
)

// Options configures an [Index].
type Options struct {
	GridSize        float64 `toml:"grid_size"`
	MaxItemsPerCell int     `toml:"max_items_per_cell"`
	MinGridSize     float64 `toml:"min_grid_size"`
	MaxGridSize     float64 `toml:"max_grid_size"`

	// DenseFactor and SparseFactor scale MaxItemsPerCell into the average
	// occupancy that triggers a finer or a coarser grid.
	DenseFactor  float64 `toml:"dense_factor"`
	SparseFactor float64 `toml:"sparse_factor"`

	Logger *log.Logger `toml:"-"`
}

// DefaultOptions returns the stock grid configuration.
func DefaultOptions() Options {
	return Options{
		GridSize:        DefaultGridSize,
		MaxItemsPerCell: DefaultMaxItemsPerCell,
		MinGridSize:     DefaultMinGridSize,
		MaxGridSize:     DefaultMaxGridSize,
		DenseFactor:     DefaultDenseFactor,
		SparseFactor:    DefaultSparseFactor,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.GridSize <= 0 {
		o.GridSize = d.GridSize
	}
	if o.MaxItemsPerCell <= 0 {
		o.MaxItemsPerCell = d.MaxItemsPerCell
	}
	if o.MinGridSize <= 0 {
		o.MinGridSize = d.MinGridSize
	}
	if o.MaxGridSize <= 0 {
		o.MaxGridSize = d.MaxGridSize
	}
	if o.MinGridSize > o.GridSize {
		o.MinGridSize = o.GridSize
	}
	if o.MaxGridSize < o.GridSize {
		o.MaxGridSize = o.GridSize
	}
	if o.DenseFactor <= 0 {
		o.DenseFactor = d.DenseFactor
	}
	if o.SparseFactor <= 0 {
		o.SparseFactor = d.SparseFactor
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Validate reports option values that cannot produce a working grid.
func (o Options) Validate() error {
	if err := errors.ValidatePositive("spatial.grid_size", o.GridSize); err != nil {
		return err
	}
	if o.MaxItemsPerCell <= 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "spatial.max_items_per_cell must be positive, got %d", o.MaxItemsPerCell)
	}
	if o.MinGridSize > o.MaxGridSize {
		return errors.New(errors.ErrCodeInvalidConfiguration, "spatial.min_grid_size %v exceeds max_grid_size %v", o.MinGridSize, o.MaxGridSize)
	}
	if o.SparseFactor >= o.DenseFactor {
		return errors.New(errors.ErrCodeInvalidConfiguration, "spatial.sparse_factor must be below dense_factor")
	}
	return nil
}

// Item is an indexed rectangle with caller data.
type Item struct {
	ID     string
	Bounds geom.Rect
	Data   map[string]any
}

type cellKey struct{ i, j int }

type entry struct {
	item  Item
	cells []cellKey
}

// Index is a grid spatial index. It is not safe for concurrent use.
type Index struct {
	opts     Options
	gridSize float64
	grid     map[cellKey]map[string]*entry
	items    map[string]*entry
}

// New creates an empty index.
func New(opts Options) *Index {
	opts = opts.withDefaults()
	return &Index{
		opts:     opts,
		gridSize: opts.GridSize,
		grid:     make(map[cellKey]map[string]*entry),
		items:    make(map[string]*entry),
	}
}

// GridSize returns the current cell size.
func (x *Index) GridSize() float64 { return x.gridSize }

// Len returns the number of indexed items.
func (x *Index) Len() int { return len(x.items) }

// CellCount returns the number of non-empty cells.
func (x *Index) CellCount() int { return len(x.grid) }

// Get returns the item stored under id.
func (x *Index) Get(id string) (Item, bool) {
	e, ok := x.items[id]
	if !ok {
		return Item{}, false
	}
	return e.item, true
}

// AddItem inserts or replaces an item. Bounds with a negative extent are
// normalised first. Non-finite bounds are rejected.
func (x *Index) AddItem(id string, bounds geom.Rect, data map[string]any) error {
	if err := errors.ValidateID("spatial item", id); err != nil {
		return err
	}
	if err := errors.ValidateFinite("spatial item bounds", bounds.X, bounds.Y, bounds.Width, bounds.Height); err != nil {
		return err
	}
	x.RemoveItem(id)
	x.insert(&entry{item: Item{ID: id, Bounds: bounds.Normalize(), Data: data}})
	return nil
}

func (x *Index) insert(e *entry) {
	e.cells = x.cellsFor(e.item.Bounds)
	for _, k := range e.cells {
		cell, ok := x.grid[k]
		if !ok {
			cell = make(map[string]*entry)
			x.grid[k] = cell
		}
		cell[e.item.ID] = e
	}
	x.items[e.item.ID] = e
}

// RemoveItem deletes an item and reports whether it existed. Cells left
// empty are dropped.
func (x *Index) RemoveItem(id string) bool {
	e, ok := x.items[id]
	if !ok {
		return false
	}
	for _, k := range e.cells {
		cell := x.grid[k]
		delete(cell, id)
		if len(cell) == 0 {
			delete(x.grid, k)
		}
	}
	delete(x.items, id)
	return true
}

// UpdateItem moves or re-annotates an item. With unchanged bounds only the
// data is merged; otherwise the item is re-inserted. Unknown ids are added.
func (x *Index) UpdateItem(id string, bounds geom.Rect, data map[string]any) error {
	e, ok := x.items[id]
	if !ok {
		return x.AddItem(id, bounds, data)
	}
	merged := mergeData(e.item.Data, data)
	if e.item.Bounds == bounds.Normalize() {
		e.item.Data = merged
		return nil
	}
	return x.AddItem(id, bounds, merged)
}

func mergeData(base, overlay map[string]any) map[string]any {
	if len(overlay) == 0 {
		return base
	}
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// QueryRegion returns every item whose bounds intersect r, sorted by id.
// Non-finite regions match nothing.
func (x *Index) QueryRegion(r geom.Rect) []Item {
	if !finite(r.X, r.Y, r.Width, r.Height) || len(x.grid) == 0 {
		return nil
	}
	r = r.Normalize()
	seen := make(map[string]struct{})
	var out []Item
	for _, k := range x.queryCells(r) {
		for id, e := range x.grid[k] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if e.item.Bounds.Intersects(r) {
				out = append(out, e.item)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// QueryPoint returns the items intersecting the square of half-width radius
// centred on (px, py).
func (x *Index) QueryPoint(px, py, radius float64) []Item {
	if radius < 0 {
		radius = 0
	}
	return x.QueryRegion(geom.RectAround(geom.Point{X: px, Y: py}, radius))
}

// QueryNearest returns the item whose bounds centre is closest to (px, py),
// at most maxDistance away, that passes filter. A nil filter accepts all.
// Ties are broken by id.
func (x *Index) QueryNearest(px, py, maxDistance float64, filter func(Item) bool) (Item, bool) {
	if len(x.items) == 0 || maxDistance < 0 || !finite(px, py) || math.IsNaN(maxDistance) {
		return Item{}, false
	}
	p := geom.Point{X: px, Y: py}
	// Past the occupied extent a wider box finds nothing new.
	limit := math.Min(maxDistance, x.reach(p))
	radius := math.Min(x.gridSize, limit)
	for {
		best, bestDist, found := Item{}, math.Inf(1), false
		for _, it := range x.QueryPoint(px, py, radius) {
			if filter != nil && !filter(it) {
				continue
			}
			d := p.Distance(it.Bounds.Center())
			if d > maxDistance {
				continue
			}
			// QueryRegion output is id-sorted, so strict less keeps the lowest id on ties.
			if d < bestDist {
				best, bestDist, found = it, d, true
			}
		}
		// Any centre within radius lies inside the queried box, so a hit at
		// that distance cannot be beaten by an item outside it.
		if found && bestDist <= radius {
			return best, true
		}
		if radius >= limit {
			return best, found
		}
		radius = math.Min(radius*2, limit)
	}
}

// CheckGridResize adapts the cell size to the current density and reports
// whether the grid was rebuilt.
func (x *Index) CheckGridResize() bool {
	if len(x.grid) == 0 {
		return false
	}
	total := 0
	for _, cell := range x.grid {
		total += len(cell)
	}
	avg := float64(total) / float64(len(x.grid))
	maxPerCell := float64(x.opts.MaxItemsPerCell)

	next := x.gridSize
	switch {
	case avg > x.opts.DenseFactor*maxPerCell && x.gridSize/2 >= x.opts.MinGridSize:
		next = x.gridSize / 2
	case avg < x.opts.SparseFactor*maxPerCell && x.gridSize < x.opts.MaxGridSize:
		next = math.Min(x.gridSize*2, x.opts.MaxGridSize)
	}
	if next == x.gridSize {
		return false
	}

	x.opts.Logger.Debug("spatial grid resized", "from", x.gridSize, "to", next, "avg_per_cell", avg, "items", len(x.items))
	x.rebuild(next)
	return true
}

func (x *Index) rebuild(gridSize float64) {
	entries := make([]*entry, 0, len(x.items))
	for _, e := range x.items {
		entries = append(entries, e)
	}
	x.gridSize = gridSize
	x.grid = make(map[cellKey]map[string]*entry)
	x.items = make(map[string]*entry, len(entries))
	for _, e := range entries {
		x.insert(e)
	}
}

// Clear removes every item. The cell size is kept.
func (x *Index) Clear() {
	x.grid = make(map[cellKey]map[string]*entry)
	x.items = make(map[string]*entry)
}

func (x *Index) cellsFor(r geom.Rect) []cellKey {
	i0 := int(math.Floor(r.X / x.gridSize))
	i1 := int(math.Floor(r.Right() / x.gridSize))
	j0 := int(math.Floor(r.Y / x.gridSize))
	j1 := int(math.Floor(r.Bottom() / x.gridSize))
	cells := make([]cellKey, 0, (i1-i0+1)*(j1-j0+1))
	for i := i0; i <= i1; i++ {
		for j := j0; j <= j1; j++ {
			cells = append(cells, cellKey{i, j})
		}
	}
	return cells
}

// queryCells returns the cells to visit for r. When r spans more cells than
// are occupied, the occupied cells inside it are returned instead, so the
// cost is bounded by the index and not by the size of r.
func (x *Index) queryCells(r geom.Rect) []cellKey {
	i0 := math.Floor(r.X / x.gridSize)
	i1 := math.Floor(r.Right() / x.gridSize)
	j0 := math.Floor(r.Y / x.gridSize)
	j1 := math.Floor(r.Bottom() / x.gridSize)
	if (i1-i0+1)*(j1-j0+1) <= float64(len(x.grid)) {
		return x.cellsFor(r)
	}
	cells := make([]cellKey, 0, len(x.grid))
	for k := range x.grid {
		fi, fj := float64(k.i), float64(k.j)
		if fi >= i0 && fi <= i1 && fj >= j0 && fj <= j1 {
			cells = append(cells, k)
		}
	}
	return cells
}

// reach returns the half-width of the smallest box around p that covers
// every occupied cell.
func (x *Index) reach(p geom.Point) float64 {
	first := true
	var minI, maxI, minJ, maxJ int
	for k := range x.grid {
		if first {
			minI, maxI, minJ, maxJ = k.i, k.i, k.j, k.j
			first = false
			continue
		}
		minI, maxI = min(minI, k.i), max(maxI, k.i)
		minJ, maxJ = min(minJ, k.j), max(maxJ, k.j)
	}
	g := x.gridSize
	return max(
		math.Abs(p.X-float64(minI)*g), math.Abs(p.X-float64(maxI+1)*g),
		math.Abs(p.Y-float64(minJ)*g), math.Abs(p.Y-float64(maxJ+1)*g),
	)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
