package geo

import (
	"fmt"

	"github.com/paulsmith/gogeos/geos"
)

// ParseWKT decodes a POLYGON or MULTIPOLYGON in lon/lat order.
func ParseWKT(s string) (MultiPolygon, error) {
	g, err := geos.FromWKT(s)
	if err != nil {
		return nil, fmt.Errorf("parse wkt: %w", err)
	}
	typ, err := g.Type()
	if err != nil {
		return nil, fmt.Errorf("parse wkt: %w", err)
	}
	switch typ {
	case geos.POLYGON:
		poly, err := polygonFromGEOS(g)
		if err != nil {
			return nil, err
		}
		return Unwrap(MultiPolygon{poly}), nil
	case geos.MULTIPOLYGON:
		n, err := g.NGeometry()
		if err != nil {
			return nil, fmt.Errorf("parse wkt: %w", err)
		}
		mp := make(MultiPolygon, 0, n)
		for i := 0; i < n; i++ {
			sub, err := g.Geometry(i)
			if err != nil {
				return nil, fmt.Errorf("parse wkt: polygon %d: %w", i, err)
			}
			poly, err := polygonFromGEOS(sub)
			if err != nil {
				return nil, fmt.Errorf("polygon %d: %w", i, err)
			}
			mp = append(mp, poly)
		}
		return Unwrap(mp), nil
	default:
		return nil, fmt.Errorf("%w: wkt type %v", ErrUnsupportedGeometry, typ)
	}
}

func polygonFromGEOS(g *geos.Geometry) (Polygon, error) {
	shell, err := g.Shell()
	if err != nil {
		return nil, fmt.Errorf("parse wkt shell: %w", err)
	}
	outer, err := ringFromGEOS(shell)
	if err != nil {
		return nil, err
	}
	poly := Polygon{outer}
	holes, err := g.Holes()
	if err != nil {
		return nil, fmt.Errorf("parse wkt holes: %w", err)
	}
	for _, h := range holes {
		r, err := ringFromGEOS(h)
		if err != nil {
			return nil, err
		}
		poly = append(poly, r)
	}
	return poly, nil
}

func ringFromGEOS(g *geos.Geometry) (Ring, error) {
	coords, err := g.Coords()
	if err != nil {
		return nil, fmt.Errorf("parse wkt ring: %w", err)
	}
	ring := make(Ring, len(coords))
	for i, c := range coords {
		ring[i] = Point{Lon: c.X, Lat: c.Y}
	}
	ring = closeRing(ring)
	if len(ring) < 4 {
		return nil, invalid("ring has < 4 vertices")
	}
	return ring, nil
}
