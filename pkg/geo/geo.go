// Package geo provides the geometry primitives used by the index and the
// query engine: WGS84 polygons and bounding boxes, GeoJSON and WKT decoding,
// antimeridian handling, and equal-area planar operations.
//
// Coordinates are longitude/latitude degrees. Rings are kept "unwrapped":
// consecutive vertices never jump by more than 180 degrees of longitude, so
// a footprint crossing the antimeridian may carry longitudes above 180 or
// below -180. Bounding boxes follow the STAC convention instead and are
// always normalised to [-180, 180]; a box crossing the antimeridian has
// MinLon > MaxLon.
package geo

import "math"

// Point is a WGS84 position.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Ring is a closed sequence of points; the first and last point are equal.
type Ring []Point

// Polygon is an outer ring followed by zero or more holes.
type Polygon []Ring

// MultiPolygon is the shape type used throughout the engine. A single
// polygon is a MultiPolygon of length one.
type MultiPolygon []Polygon

// IsEmpty reports whether the shape has no rings.
func (mp MultiPolygon) IsEmpty() bool {
	for _, poly := range mp {
		if len(poly) > 0 && len(poly[0]) > 0 {
			return false
		}
	}
	return true
}

// Bounds returns the normalised bounding box of the shape.
func (mp MultiPolygon) Bounds() BBox {
	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}
		// holes lie inside the shell
		for _, p := range poly[0] {
			minLon = math.Min(minLon, p.Lon)
			maxLon = math.Max(maxLon, p.Lon)
			minLat = math.Min(minLat, p.Lat)
			maxLat = math.Max(maxLat, p.Lat)
		}
	}
	if math.IsInf(minLon, 1) {
		return BBox{}
	}
	lo, hi := normalizeLonRange(minLon, maxLon)
	return BBox{MinLon: lo, MinLat: minLat, MaxLon: hi, MaxLat: maxLat}
}

// ContainsPoint reports whether p lies inside the shape or on its boundary.
// Longitudes are compared relative to p, so footprints crossing the
// antimeridian behave like any other.
func (mp MultiPolygon) ContainsPoint(p Point) bool {
	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}
		in, onEdge := ringContains(poly[0], p)
		if onEdge {
			return true
		}
		if !in {
			continue
		}
		inHole := false
		for _, hole := range poly[1:] {
			hin, hedge := ringContains(hole, p)
			if hin && !hedge {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// GeoJSON renders the shape as a GeoJSON geometry object.
func (mp MultiPolygon) GeoJSON() map[string]any {
	if len(mp) == 1 {
		return map[string]any{"type": "Polygon", "coordinates": polygonCoords(mp[0])}
	}
	coords := make([][][][]float64, len(mp))
	for i, poly := range mp {
		coords[i] = polygonCoords(poly)
	}
	return map[string]any{"type": "MultiPolygon", "coordinates": coords}
}

func polygonCoords(poly Polygon) [][][]float64 {
	rings := make([][][]float64, len(poly))
	for i, ring := range poly {
		pts := make([][]float64, len(ring))
		for j, p := range ring {
			pts[j] = []float64{WrapLon(p.Lon), p.Lat}
		}
		rings[i] = pts
	}
	return rings
}

// ringContains runs an even-odd ray cast. The ring is shifted by a whole
// number of turns so that its middle longitude is closest to p.
func ringContains(ring Ring, p Point) (inside, onEdge bool) {
	n := len(ring)
	if n < 3 {
		return false, false
	}
	lo, hi := ring[0].Lon, ring[0].Lon
	for _, q := range ring {
		lo = math.Min(lo, q.Lon)
		hi = math.Max(hi, q.Lon)
	}
	shift := math.Round((p.Lon-(lo+hi)/2)/360) * 360
	rel := func(q Point) Point {
		return Point{Lon: q.Lon + shift, Lat: q.Lat}
	}
	prev := rel(ring[n-1])
	for i := 0; i < n; i++ {
		cur := rel(ring[i])
		if onSegment(prev, cur, p) {
			return false, true
		}
		if (cur.Lat > p.Lat) != (prev.Lat > p.Lat) {
			x := (prev.Lon-cur.Lon)*(p.Lat-cur.Lat)/(prev.Lat-cur.Lat) + cur.Lon
			if p.Lon < x {
				inside = !inside
			}
		}
		prev = cur
	}
	return inside, false
}

const epsilon = 1e-12

func onSegment(a, b, p Point) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if math.Abs(cross) > epsilon {
		return false
	}
	return p.Lon >= math.Min(a.Lon, b.Lon)-epsilon && p.Lon <= math.Max(a.Lon, b.Lon)+epsilon &&
		p.Lat >= math.Min(a.Lat, b.Lat)-epsilon && p.Lat <= math.Max(a.Lat, b.Lat)+epsilon
}

// WrapLon maps a longitude into [-180, 180).
func WrapLon(lon float64) float64 {
	l := math.Mod(lon+180, 360)
	if l < 0 {
		l += 360
	}
	return l - 180
}

// NormalizeLon is WrapLon except that 180 itself is kept, so points on the
// antimeridian still match boxes whose eastern edge is 180.
func NormalizeLon(lon float64) float64 {
	if lon == 180 {
		return lon
	}
	return WrapLon(lon)
}

// normalizeLonRange maps an unwrapped [lo, hi] interval into STAC bbox
// form. Intervals of 360 degrees or more cover the globe.
func normalizeLonRange(lo, hi float64) (float64, float64) {
	width := hi - lo
	if width >= 360 {
		return -180, 180
	}
	if lo >= -180 && hi <= 180 {
		return lo, hi
	}
	nlo := WrapLon(lo)
	nhi := nlo + width
	if nhi > 180 {
		nhi -= 360
	}
	return nlo, nhi
}
