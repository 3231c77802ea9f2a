package geo

import (
	"fmt"
	"math"
)

// BBox is an axis-aligned box in STAC form: [MinLon, MinLat, MaxLon, MaxLat].
// MinLon > MaxLon marks a box that crosses the antimeridian.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// NewBBox builds a box from a 2D or 3D STAC bbox array.
func NewBBox(v []float64) (BBox, error) {
	var b BBox
	switch len(v) {
	case 4:
		b = BBox{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}
	case 6:
		b = BBox{MinLon: v[0], MinLat: v[1], MaxLon: v[3], MaxLat: v[4]}
	default:
		return BBox{}, fmt.Errorf("geo: bbox must have 4 or 6 values, got %d", len(v))
	}
	if err := b.Validate(); err != nil {
		return BBox{}, err
	}
	return b, nil
}

// Validate checks ranges and ordering.
func (b BBox) Validate() error {
	for _, v := range []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("bbox has non-finite coordinate")
		}
	}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLat > b.MaxLat {
		return invalid("bbox latitude range [%g, %g] is invalid", b.MinLat, b.MaxLat)
	}
	if b.MinLon < -180 || b.MinLon > 180 || b.MaxLon < -180 || b.MaxLon > 180 {
		return invalid("bbox longitude range [%g, %g] is invalid", b.MinLon, b.MaxLon)
	}
	return nil
}

// CrossesAntimeridian reports whether the box wraps past 180 degrees.
func (b BBox) CrossesAntimeridian() bool { return b.MinLon > b.MaxLon }

// Split returns the box as one or two boxes that do not cross the
// antimeridian.
func (b BBox) Split() []BBox {
	if !b.CrossesAntimeridian() {
		return []BBox{b}
	}
	return []BBox{
		{MinLon: b.MinLon, MinLat: b.MinLat, MaxLon: 180, MaxLat: b.MaxLat},
		{MinLon: -180, MinLat: b.MinLat, MaxLon: b.MaxLon, MaxLat: b.MaxLat},
	}
}

// Intersects reports whether the two boxes share at least one point.
func (b BBox) Intersects(o BBox) bool {
	for _, x := range b.Split() {
		for _, y := range o.Split() {
			if x.MinLon <= y.MaxLon && y.MinLon <= x.MaxLon &&
				x.MinLat <= y.MaxLat && y.MinLat <= x.MaxLat {
				return true
			}
		}
	}
	return false
}

// ContainsPoint reports whether p is inside the box or on its edge.
func (b BBox) ContainsPoint(p Point) bool {
	if p.Lat < b.MinLat || p.Lat > b.MaxLat {
		return false
	}
	lon := NormalizeLon(p.Lon)
	if b.CrossesAntimeridian() {
		return lon >= b.MinLon || lon <= b.MaxLon
	}
	return lon >= b.MinLon && lon <= b.MaxLon
}

// Width returns the longitude extent in degrees.
func (b BBox) Width() float64 {
	if b.CrossesAntimeridian() {
		return b.MaxLon + 360 - b.MinLon
	}
	return b.MaxLon - b.MinLon
}

// Center returns the midpoint of the box, honouring antimeridian wrap.
func (b BBox) Center() Point {
	return Point{
		Lon: WrapLon(b.MinLon + b.Width()/2),
		Lat: (b.MinLat + b.MaxLat) / 2,
	}
}

// Polygon returns the box as a rectangle. A box crossing the antimeridian is
// returned unwrapped, with its eastern edge above 180.
func (b BBox) Polygon() Polygon {
	maxLon := b.MinLon + b.Width()
	return Polygon{Ring{
		{Lon: b.MinLon, Lat: b.MinLat},
		{Lon: maxLon, Lat: b.MinLat},
		{Lon: maxLon, Lat: b.MaxLat},
		{Lon: b.MinLon, Lat: b.MaxLat},
		{Lon: b.MinLon, Lat: b.MinLat},
	}}
}

// Degenerate reports whether the box has zero width or height.
func (b BBox) Degenerate() bool {
	return b.Width() == 0 || b.MaxLat == b.MinLat
}

// Slice returns the box as a STAC bbox array.
func (b BBox) Slice() []float64 {
	return []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}
