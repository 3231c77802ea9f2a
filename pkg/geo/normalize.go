package geo

import "math"

// Unwrap removes antimeridian jumps from every ring so that consecutive
// vertices differ by at most 180 degrees of longitude. Holes are shifted to
// sit next to their shell.
func Unwrap(mp MultiPolygon) MultiPolygon {
	out := make(MultiPolygon, len(mp))
	for i, poly := range mp {
		np := make(Polygon, len(poly))
		for j, ring := range poly {
			r := unwrapRing(ring)
			if j > 0 && len(np[0]) > 0 && len(r) > 0 {
				shift := math.Round((np[0][0].Lon-r[0].Lon)/360) * 360
				if shift != 0 {
					for k := range r {
						r[k].Lon += shift
					}
				}
			}
			np[j] = r
		}
		out[i] = np
	}
	return out
}

func unwrapRing(ring Ring) Ring {
	out := make(Ring, len(ring))
	if len(ring) == 0 {
		return out
	}
	offset := 0.0
	out[0] = ring[0]
	for i := 1; i < len(ring); i++ {
		d := ring[i].Lon - ring[i-1].Lon
		switch {
		case d > 180:
			offset -= 360
		case d < -180:
			offset += 360
		}
		out[i] = Point{Lon: ring[i].Lon + offset, Lat: ring[i].Lat}
	}
	return out
}

// Validate checks that the shape is usable for area math. Every failure is
// an *InvalidGeometryError.
func (mp MultiPolygon) Validate() error {
	if mp.IsEmpty() {
		return invalid("empty shape")
	}
	for pi, poly := range mp {
		if len(poly) == 0 {
			return invalid("polygon %d has no rings", pi)
		}
		for ri, ring := range poly {
			if len(ring) < 4 {
				return invalid("polygon %d ring %d has < 4 vertices", pi, ri)
			}
			if ring[0] != ring[len(ring)-1] {
				return invalid("polygon %d ring %d is not closed", pi, ri)
			}
			for _, p := range ring {
				if math.IsNaN(p.Lon) || math.IsNaN(p.Lat) || math.IsInf(p.Lon, 0) || math.IsInf(p.Lat, 0) {
					return invalid("polygon %d ring %d has non-finite coordinate", pi, ri)
				}
				if p.Lat < -90 || p.Lat > 90 {
					return invalid("polygon %d ring %d latitude %g out of range", pi, ri, p.Lat)
				}
			}
			if math.Abs(signedArea(ring)) < epsilon {
				return invalid("polygon %d ring %d has zero area", pi, ri)
			}
			if i, j, ok := selfIntersection(ring); ok {
				return invalid("polygon %d ring %d self-intersects at segments %d and %d", pi, ri, i, j)
			}
		}
		if b := (MultiPolygon{poly}).Bounds(); b.Width() >= 180 {
			return invalid("polygon %d spans %g degrees of longitude", pi, b.Width())
		}
	}
	return nil
}

// signedArea is the shoelace sum in degrees; only its sign and whether it
// is zero are meaningful.
func signedArea(ring Ring) float64 {
	var s float64
	for i := 0; i < len(ring)-1; i++ {
		s += ring[i].Lon*ring[i+1].Lat - ring[i+1].Lon*ring[i].Lat
	}
	return s / 2
}

// selfIntersection returns the first pair of non-adjacent segments that
// touch or cross.
func selfIntersection(ring Ring) (int, int, bool) {
	n := len(ring) - 1 // segments
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func orientation(a, b, c Point) int {
	v := (b.Lon-a.Lon)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lon-a.Lon)
	switch {
	case v > epsilon:
		return 1
	case v < -epsilon:
		return -1
	default:
		return 0
	}
}

func segmentsIntersect(p1, p2, q1, q2 Point) bool {
	o1 := orientation(p1, p2, q1)
	o2 := orientation(p1, p2, q2)
	o3 := orientation(q1, q2, p1)
	o4 := orientation(q1, q2, p2)
	if o1 != o2 && o3 != o4 {
		return true
	}
	return (o1 == 0 && onSegment(p1, p2, q1)) ||
		(o2 == 0 && onSegment(p1, p2, q2)) ||
		(o3 == 0 && onSegment(q1, q2, p1)) ||
		(o4 == 0 && onSegment(q1, q2, p2))
}
