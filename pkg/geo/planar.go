package geo

import (
	"fmt"
	"math"

	"github.com/paulsmith/gogeos/geos"
)

// Plane performs exact polygon operations in an equal-area projection
// centred on a query area. All footprints compared with each other must
// come from the same Plane.
type Plane struct {
	proj Projection
}

// NewPlane returns a plane centred on c.
func NewPlane(c Point) *Plane {
	return &Plane{proj: NewProjection(c)}
}

// PlaneFor centres a plane on the bounding box of mp.
func PlaneFor(mp MultiPolygon) *Plane {
	return NewPlane(mp.Bounds().Center())
}

// Footprint is a projected shape. The zero value is empty.
type Footprint struct {
	g *geos.Geometry
}

// Footprint projects mp onto the plane.
func (pl *Plane) Footprint(mp MultiPolygon) (*Footprint, error) {
	if mp.IsEmpty() {
		return &Footprint{}, nil
	}
	polys := make([]*geos.Geometry, 0, len(mp))
	for i, poly := range mp {
		g, err := pl.polygon(poly)
		if err != nil {
			return nil, &InvalidGeometryError{Reason: fmt.Sprintf("polygon %d", i), Err: err}
		}
		polys = append(polys, g)
	}
	if len(polys) == 1 {
		return &Footprint{g: polys[0]}, nil
	}
	g, err := geos.NewCollection(geos.MULTIPOLYGON, polys...)
	if err != nil {
		return nil, &InvalidGeometryError{Reason: "multipolygon", Err: err}
	}
	return &Footprint{g: g}, nil
}

func (pl *Plane) polygon(poly Polygon) (*geos.Geometry, error) {
	shell, err := pl.coords(poly[0])
	if err != nil {
		return nil, err
	}
	holes := make([][]geos.Coord, 0, len(poly)-1)
	for _, ring := range poly[1:] {
		h, err := pl.coords(ring)
		if err != nil {
			return nil, err
		}
		holes = append(holes, h)
	}
	return geos.NewPolygon(shell, holes...)
}

func (pl *Plane) coords(ring Ring) ([]geos.Coord, error) {
	out := make([]geos.Coord, len(ring))
	for i, p := range ring {
		x, y := pl.proj.Forward(p)
		if math.IsInf(x, 0) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("vertex %d cannot be projected", i)
		}
		out[i] = geos.NewCoord(x, y)
	}
	return out, nil
}

// IsEmpty reports whether the footprint covers nothing.
func (f *Footprint) IsEmpty() bool {
	if f == nil || f.g == nil {
		return true
	}
	empty, err := f.g.IsEmpty()
	return err != nil || empty
}

// Area returns the footprint area in square metres.
func (f *Footprint) Area() (float64, error) {
	if f.IsEmpty() {
		return 0, nil
	}
	return f.g.Area()
}

// Intersects reports whether the footprints share any point.
func (f *Footprint) Intersects(o *Footprint) (bool, error) {
	if f.IsEmpty() || o.IsEmpty() {
		return false, nil
	}
	return f.g.Intersects(o.g)
}

// Intersection returns the overlap of f and o. Invalid catalog footprints
// (bow-ties and similar) are repaired with a zero-width buffer and retried
// once before giving up.
func (f *Footprint) Intersection(o *Footprint) (*Footprint, error) {
	if f.IsEmpty() || o.IsEmpty() {
		return &Footprint{}, nil
	}
	g, err := f.g.Intersection(o.g)
	if err == nil {
		return &Footprint{g: g}, nil
	}
	a, aerr := f.g.Buffer(0)
	b, berr := o.g.Buffer(0)
	if aerr != nil || berr != nil {
		return nil, &InvalidGeometryError{Reason: "intersection", Err: err}
	}
	g, err = a.Intersection(b)
	if err != nil {
		return nil, &InvalidGeometryError{Reason: "intersection", Err: err}
	}
	return &Footprint{g: g}, nil
}

// Union merges footprints so that overlapping parts are counted once.
func Union(fs ...*Footprint) (*Footprint, error) {
	var acc *geos.Geometry
	for _, f := range fs {
		if f.IsEmpty() {
			continue
		}
		if acc == nil {
			acc = f.g
			continue
		}
		u, err := acc.Union(f.g)
		if err != nil {
			return nil, &InvalidGeometryError{Reason: "union", Err: err}
		}
		acc = u
	}
	return &Footprint{g: acc}, nil
}

// Intersects reports whether two shapes overlap, using a plane centred on a.
func Intersects(a, b MultiPolygon) (bool, error) {
	pl := PlaneFor(a)
	fa, err := pl.Footprint(a)
	if err != nil {
		return false, err
	}
	fb, err := pl.Footprint(b)
	if err != nil {
		return false, err
	}
	return fa.Intersects(fb)
}

// Area returns the ellipsoidal area of mp in square metres.
func Area(mp MultiPolygon) (float64, error) {
	f, err := PlaneFor(mp).Footprint(mp)
	if err != nil {
		return 0, err
	}
	return f.Area()
}
