package geo

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"
)

// Cell is an H3 cell with its centre point.
type Cell struct {
	ID     string `json:"id"`
	Center Point  `json:"center"`
}

// MaxCells bounds the cell set produced by Cells.
const MaxCells = 20000

// Cells returns the H3 cells whose centres fall inside mp, sorted by ID.
// When the set would exceed limit the resolution is lowered until it fits;
// the resolution actually used is returned. Shapes smaller than a single
// cell get the cell containing their bbox centre.
func Cells(mp MultiPolygon, res, limit int) ([]Cell, int, error) {
	if res < 0 || res > 15 {
		return nil, 0, fmt.Errorf("h3 resolution %d out of range [0,15]", res)
	}
	if limit <= 0 {
		limit = MaxCells
	}
	for ; res >= 0; res-- {
		cells, err := polyfill(mp, res)
		if err != nil {
			return nil, 0, err
		}
		if len(cells) > limit {
			continue
		}
		if len(cells) == 0 {
			c := mp.Bounds().Center()
			cell, err := h3.LatLngToCell(h3.LatLng{Lat: c.Lat, Lng: c.Lon}, res)
			if err != nil {
				return nil, 0, fmt.Errorf("h3 cell: %w", err)
			}
			cells = []h3.Cell{cell}
		}
		out, err := withCenters(cells)
		return out, res, err
	}
	return nil, 0, fmt.Errorf("h3 polyfill: shape needs more than %d cells at every resolution", limit)
}

func polyfill(mp MultiPolygon, res int) ([]h3.Cell, error) {
	seen := make(map[h3.Cell]struct{})
	var out []h3.Cell
	for _, poly := range mp {
		gp := h3.GeoPolygon{GeoLoop: toLoop(poly[0])}
		for _, hole := range poly[1:] {
			gp.Holes = append(gp.Holes, toLoop(hole))
		}
		cells, err := h3.PolygonToCells(gp, res)
		if err != nil {
			return nil, fmt.Errorf("h3 polyfill: %w", err)
		}
		for _, c := range cells {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out, nil
}

// toLoop wraps longitudes back into [-180,180) and drops the closing vertex.
func toLoop(r Ring) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(r))
	for _, p := range r {
		loop = append(loop, h3.LatLng{Lat: p.Lat, Lng: WrapLon(p.Lon)})
	}
	if n := len(loop); n > 1 && loop[0] == loop[n-1] {
		loop = loop[:n-1]
	}
	return loop
}

func withCenters(cells []h3.Cell) ([]Cell, error) {
	out := make([]Cell, 0, len(cells))
	for _, c := range cells {
		ll, err := h3.CellToLatLng(c)
		if err != nil {
			return nil, fmt.Errorf("h3 cell center: %w", err)
		}
		out = append(out, Cell{ID: c.String(), Center: Point{Lon: ll.Lng, Lat: ll.Lat}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
