package geo

import "math"

// WGS84 ellipsoid.
const (
	semiMajor  = 6378137.0
	flattening = 1 / 298.257223563
)

var (
	ecc2 = flattening * (2 - flattening)
	ecc  = math.Sqrt(ecc2)
	qp   = authalicQ(math.Pi / 2)
	// radius of the sphere with the same surface area as the ellipsoid
	authalicRadius = semiMajor * math.Sqrt(qp/2)
)

// Projection is a Lambert azimuthal equal-area projection of the WGS84
// ellipsoid, evaluated through authalic latitudes so that projected areas
// equal ellipsoidal areas. Distortion of shape grows with distance from the
// centre; areas stay exact.
type Projection struct {
	lon0  float64
	sinB0 float64
	cosB0 float64
}

// NewProjection centres a projection on c.
func NewProjection(c Point) Projection {
	b0 := authalicLat(c.Lat * math.Pi / 180)
	return Projection{
		lon0:  c.Lon * math.Pi / 180,
		sinB0: math.Sin(b0),
		cosB0: math.Cos(b0),
	}
}

// Forward maps p to planar metres. Longitudes are taken relative to the
// centre, so unwrapped and wrapped inputs project identically.
func (pr Projection) Forward(p Point) (x, y float64) {
	dl := WrapLon(p.Lon-pr.lon0*180/math.Pi) * math.Pi / 180
	b := authalicLat(p.Lat * math.Pi / 180)
	sinB, cosB := math.Sin(b), math.Cos(b)
	cosDl := math.Cos(dl)
	denom := 1 + pr.sinB0*sinB + pr.cosB0*cosB*cosDl
	if denom < epsilon {
		// antipode of the centre
		return math.Inf(1), math.Inf(1)
	}
	k := math.Sqrt(2 / denom)
	x = authalicRadius * k * cosB * math.Sin(dl)
	y = authalicRadius * k * (pr.cosB0*sinB - pr.sinB0*cosB*cosDl)
	return x, y
}

func authalicQ(phi float64) float64 {
	s := math.Sin(phi)
	return (1 - ecc2) * (s/(1-ecc2*s*s) - (1/(2*ecc))*math.Log((1-ecc*s)/(1+ecc*s)))
}

func authalicLat(phi float64) float64 {
	r := authalicQ(phi) / qp
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return math.Asin(r)
}
