package index

import (
	"slices"

	"github.com/robert-malhotra/stac-coverage/pkg/geo"
)

// Candidates returns items whose bounding boxes intersect b, ordered by id.
func (idx *Index) Candidates(b geo.BBox) []*Item {
	var out []*Item
	idx.scan(b, func(it *Item) {
		if it.BBox.Intersects(b) {
			out = append(out, it)
		}
	})
	return out
}

// scan calls fn for every item that may intersect b, in id order, each at
// most once.
func (idx *Index) scan(b geo.BBox, fn func(*Item)) {
	if idx.cells == nil || idx.cellCount(b) >= len(idx.items) {
		for _, it := range idx.items {
			fn(it)
		}
		return
	}
	seen := make(map[int]struct{})
	var hits []int
	idx.eachCell(b, func(k cellKey) {
		for _, i := range idx.cells[k] {
			if _, ok := seen[i]; !ok {
				seen[i] = struct{}{}
				hits = append(hits, i)
			}
		}
	})
	for _, i := range idx.wide {
		if _, ok := seen[i]; !ok {
			seen[i] = struct{}{}
			hits = append(hits, i)
		}
	}
	slices.Sort(hits)
	for _, i := range hits {
		fn(idx.items[i])
	}
}

// QueryPoint returns items whose footprint contains p, boundary included,
// ordered by id.
func (idx *Index) QueryPoint(p geo.Point) []*Item {
	lon := geo.NormalizeLon(p.Lon)
	b := geo.BBox{MinLon: lon, MinLat: p.Lat, MaxLon: lon, MaxLat: p.Lat}
	var out []*Item
	idx.scan(b, func(it *Item) {
		if it.BBox.ContainsPoint(p) && it.Geometry.ContainsPoint(p) {
			out = append(out, it)
		}
	})
	return out
}

// QuerySpatial returns items whose footprint intersects shape, ordered by
// id. The bounding boxes prune candidates before the exact test.
func (idx *Index) QuerySpatial(shape geo.MultiPolygon) ([]*Item, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	plane := geo.PlaneFor(shape)
	q, err := plane.Footprint(shape)
	if err != nil {
		return nil, err
	}
	bounds := shape.Bounds()
	var out []*Item
	idx.scan(bounds, func(it *Item) {
		if !it.BBox.Intersects(bounds) {
			return
		}
		// catalog footprints GEOS cannot handle never match
		f, err := plane.Footprint(it.Geometry)
		if err != nil {
			return
		}
		if ok, err := q.Intersects(f); err == nil && ok {
			out = append(out, it)
		}
	})
	return out, nil
}

// QueryTemporal returns a predicate matching items whose acquisition
// overlaps w.
func (idx *Index) QueryTemporal(w Window) Predicate {
	return func(it *Item) bool { return it.Overlaps(w) }
}

// Filter keeps the items matching p, preserving order.
func Filter(items []*Item, p Predicate) []*Item {
	out := items[:0:0]
	for _, it := range items {
		if p == nil || p(it) {
			out = append(out, it)
		}
	}
	return out
}
