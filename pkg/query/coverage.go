package query

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/robert-malhotra/stac-coverage/internal/metrics"
	"github.com/robert-malhotra/stac-coverage/pkg/geo"
	"github.com/robert-malhotra/stac-coverage/pkg/index"
)

// Match is an item intersecting a coverage query.
type Match struct {
	Item *index.Item `json:"item"`
	// Ratio is the share of the query area this item covers on its own.
	Ratio float64 `json:"coverage_ratio"`
	// AreaM2 is the intersection area in square metres.
	AreaM2 float64 `json:"area_m2"`
}

// CoverageResult answers whether imagery covers an area during a window.
type CoverageResult struct {
	Matches []Match      `json:"matched_items"`
	Ratio   float64      `json:"coverage_ratio"`
	AreaM2  float64      `json:"area_m2"`
	Covered float64      `json:"covered_m2"`
	Window  index.Window `json:"window"`
	Cells   *CellReport  `json:"cells,omitempty"`
}

// Items returns the matched items in result order.
func (r *CoverageResult) Items() []*index.Item {
	out := make([]*index.Item, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Item
	}
	return out
}

// CellReport splits the query area into H3 cells and says which cell
// centres fall inside a matched footprint.
type CellReport struct {
	Resolution int        `json:"resolution"`
	Covered    []geo.Cell `json:"covered"`
	Uncovered  []geo.Cell `json:"uncovered"`
}

// CheckCoverage intersects area with every item whose acquisition overlaps
// w. The ratio is the area of the union of the intersections over the
// area of the query, so overlapping passes are counted once. All areas are
// computed in an equal-area projection centred on the query. An empty
// result with ratio 0 is not an error.
func (e *Engine) CheckCoverage(ctx context.Context, area geo.MultiPolygon, w index.Window, opts ...QueryOption) (*CoverageResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("coverage", time.Since(start).Seconds()) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := e.index()
	if err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	area = geo.Unwrap(area)
	if err := area.Validate(); err != nil {
		return nil, err
	}
	cfg := buildQueryConfig(opts)

	plane := geo.PlaneFor(area)
	q, err := plane.Footprint(area)
	if err != nil {
		return nil, err
	}
	total, err := q.Area()
	if err != nil {
		return nil, &geo.InvalidGeometryError{Reason: "area", Err: err}
	}
	if total <= 0 {
		return nil, &geo.InvalidGeometryError{Reason: "query area is empty after projection"}
	}

	res := &CoverageResult{AreaM2: total, Window: w, Matches: []Match{}}
	keep := index.And(idx.QueryTemporal(w), cfg.predicate())
	var parts []*geo.Footprint
	for _, it := range idx.Candidates(area.Bounds()) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !keep(it) {
			continue
		}
		f, err := plane.Footprint(it.Geometry)
		if err != nil {
			e.debugf("query: item %s footprint: %v", it.Key(), err)
			continue
		}
		inter, err := q.Intersection(f)
		if err != nil {
			e.debugf("query: item %s intersection: %v", it.Key(), err)
			continue
		}
		a, err := inter.Area()
		if err != nil || a <= 0 {
			continue
		}
		parts = append(parts, inter)
		res.Matches = append(res.Matches, Match{Item: it, Ratio: clamp(a / total), AreaM2: a})
	}

	if len(parts) > 0 {
		u, err := geo.Union(parts...)
		if err != nil {
			return nil, fmt.Errorf("query: union of %d footprints: %w", len(parts), err)
		}
		covered, err := u.Area()
		if err != nil {
			return nil, &geo.InvalidGeometryError{Reason: "union area", Err: err}
		}
		res.Covered = min(covered, total)
		res.Ratio = clamp(covered / total)
	}

	slices.SortStableFunc(res.Matches, func(a, b Match) int {
		switch {
		case a.Ratio > b.Ratio:
			return -1
		case a.Ratio < b.Ratio:
			return 1
		}
		// newest acquisition first
		if c := b.Item.Start.Compare(a.Item.Start); c != 0 {
			return c
		}
		if c := strings.Compare(a.Item.ID, b.Item.ID); c != 0 {
			return c
		}
		return strings.Compare(a.Item.Collection, b.Item.Collection)
	})

	if cfg.cells {
		report, err := cellReport(area, cfg.cellRes, res.Matches)
		if err != nil {
			return nil, err
		}
		res.Cells = report
	}
	return res, nil
}

func cellReport(area geo.MultiPolygon, res int, matches []Match) (*CellReport, error) {
	cells, used, err := geo.Cells(area, res, geo.MaxCells)
	if err != nil {
		return nil, fmt.Errorf("query: cell report: %w", err)
	}
	r := &CellReport{Resolution: used, Covered: []geo.Cell{}, Uncovered: []geo.Cell{}}
	for _, c := range cells {
		covered := false
		for _, m := range matches {
			if m.Item.Geometry.ContainsPoint(c.Center) {
				covered = true
				break
			}
		}
		if covered {
			r.Covered = append(r.Covered, c)
		} else {
			r.Uncovered = append(r.Uncovered, c)
		}
	}
	return r, nil
}

// Coverage is the string-argument form of CheckCoverage used by the CLI
// and the HTTP API. shape may be GeoJSON, WKT or a bbox; empty start or
// end leaves that side of the window open.
func (e *Engine) Coverage(ctx context.Context, shape, start, end string, opts ...QueryOption) (*CoverageResult, error) {
	area, err := geo.ParseShape(shape)
	if err != nil {
		var ge *geo.InvalidGeometryError
		if !errors.As(err, &ge) {
			err = &geo.InvalidGeometryError{Reason: "parse shape", Err: err}
		}
		return nil, err
	}
	w, err := ParseWindow(start, end)
	if err != nil {
		return nil, err
	}
	return e.CheckCoverage(ctx, area, w, opts...)
}

// ParseWindow parses the bounds of a window. A bare end date covers the
// whole of that day.
func ParseWindow(start, end string) (index.Window, error) {
	var w index.Window
	if strings.TrimSpace(start) != "" {
		t, err := ParseDate(start)
		if err != nil {
			return w, err
		}
		w.Start = t
	}
	if s := strings.TrimSpace(end); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			return w, err
		}
		if len(s) == len("2006-01-02") {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		w.End = t
	}
	return w, w.Validate()
}

func clamp(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

func (e *Engine) debugf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Debugf(format, args...)
	}
}
