// Package index holds catalog items in an immutable spatial-temporal index.
//
// Items are bucketed into a lon/lat grid by their bounding boxes. A query
// first collects the buckets under its own bounding box (the coarse
// filter) and then tests survivors exactly. Items whose boxes span more
// cells than MaxCellsPerItem go to a small list that every query scans.
// With a cell size of zero the index degrades to a linear scan, which is
// the floor, not the target, for large catalogs.
package index

import (
	"math"
	"sort"
	"time"

	"github.com/robert-malhotra/stac-coverage/pkg/geo"
)

const (
	DefaultCellSize        = 1.0
	DefaultMaxCellsPerItem = 4096
)

type cellKey struct{ x, y int }

// Index is immutable after Build and safe for concurrent readers.
type Index struct {
	items    []*Item
	cellSize float64
	nx, ny   int
	cells    map[cellKey][]int
	wide     []int

	generation uint64
	builtAt    time.Time
	stats      Stats
}

// Stats describe a built index.
type Stats struct {
	Items      int     `json:"items"`
	Duplicates int     `json:"duplicates"`
	Cells      int     `json:"cells"`
	Wide       int     `json:"wide"`
	CellSize   float64 `json:"cell_size"`
	Linear     bool    `json:"linear"`
}

type buildConfig struct {
	cellSize        float64
	maxCellsPerItem int
	generation      uint64
	now             func() time.Time
}

// Option configures Build.
type Option func(*buildConfig)

// WithCellSize sets the grid cell size in degrees. Zero or negative
// selects the linear scan.
func WithCellSize(deg float64) Option {
	return func(c *buildConfig) { c.cellSize = deg }
}

// WithMaxCellsPerItem bounds how many cells one item may occupy before it
// is kept in the wide list.
func WithMaxCellsPerItem(n int) Option {
	return func(c *buildConfig) {
		if n > 0 {
			c.maxCellsPerItem = n
		}
	}
}

// WithGeneration tags the index with a refresh counter.
func WithGeneration(g uint64) Option {
	return func(c *buildConfig) { c.generation = g }
}

// WithBuildTime replaces time.Now for BuiltAt.
func WithBuildTime(now func() time.Time) Option {
	return func(c *buildConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// Build indexes items. It does no I/O. When two items share a collection
// and id, the one whose source URL sorts last wins.
func Build(items []*Item, opts ...Option) *Index {
	cfg := buildConfig{
		cellSize:        DefaultCellSize,
		maxCellsPerItem: DefaultMaxCellsPerItem,
		now:             time.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}

	ordered := make([]*Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			ordered = append(ordered, it)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SourceURL < ordered[j].SourceURL })
	byKey := make(map[string]*Item, len(ordered))
	for _, it := range ordered {
		byKey[it.Key()] = it
	}
	uniq := make([]*Item, 0, len(byKey))
	for _, it := range byKey {
		uniq = append(uniq, it)
	}
	sortItems(uniq)

	idx := &Index{
		items:      uniq,
		cellSize:   cfg.cellSize,
		generation: cfg.generation,
		builtAt:    cfg.now(),
	}
	idx.stats = Stats{
		Items:      len(uniq),
		Duplicates: len(ordered) - len(uniq),
		CellSize:   cfg.cellSize,
		Linear:     cfg.cellSize <= 0,
	}
	if cfg.cellSize > 0 {
		idx.buildGrid(cfg.maxCellsPerItem)
	}
	return idx
}

// sortItems orders by id, then collection, so results are reproducible.
func sortItems(items []*Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].ID != items[j].ID {
			return items[i].ID < items[j].ID
		}
		return items[i].Collection < items[j].Collection
	})
}

func (idx *Index) buildGrid(maxCells int) {
	idx.nx = int(math.Ceil(360 / idx.cellSize))
	idx.ny = int(math.Ceil(180 / idx.cellSize))
	idx.cells = make(map[cellKey][]int)
	for i, it := range idx.items {
		if idx.cellCount(it.BBox) > maxCells {
			idx.wide = append(idx.wide, i)
			continue
		}
		idx.eachCell(it.BBox, func(k cellKey) {
			idx.cells[k] = append(idx.cells[k], i)
		})
	}
	idx.stats.Cells = len(idx.cells)
	idx.stats.Wide = len(idx.wide)
}

func (idx *Index) cellX(lon float64) int {
	x := int(math.Floor((lon + 180) / idx.cellSize))
	return min(max(x, 0), idx.nx-1)
}

func (idx *Index) cellY(lat float64) int {
	y := int(math.Floor((lat + 90) / idx.cellSize))
	return min(max(y, 0), idx.ny-1)
}

func (idx *Index) cellCount(b geo.BBox) int {
	n := 0
	for _, part := range b.Split() {
		n += (idx.cellX(part.MaxLon) - idx.cellX(part.MinLon) + 1) *
			(idx.cellY(part.MaxLat) - idx.cellY(part.MinLat) + 1)
	}
	return n
}

func (idx *Index) eachCell(b geo.BBox, fn func(cellKey)) {
	for _, part := range b.Split() {
		for x := idx.cellX(part.MinLon); x <= idx.cellX(part.MaxLon); x++ {
			for y := idx.cellY(part.MinLat); y <= idx.cellY(part.MaxLat); y++ {
				fn(cellKey{x, y})
			}
		}
	}
}

// Len returns the number of indexed items.
func (idx *Index) Len() int { return len(idx.items) }

// Items returns all items ordered by id. The slice must not be modified.
func (idx *Index) Items() []*Item { return idx.items }

// Stats describes the index layout.
func (idx *Index) Stats() Stats { return idx.stats }

// Generation is the refresh counter given at build time.
func (idx *Index) Generation() uint64 { return idx.generation }

// BuiltAt is when the index was built.
func (idx *Index) BuiltAt() time.Time { return idx.builtAt }
