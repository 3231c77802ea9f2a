package geo

import (
	"errors"
	"fmt"
)

// ErrUnsupportedGeometry is returned when a GeoJSON or WKT geometry is not
// a Polygon or MultiPolygon.
var ErrUnsupportedGeometry = errors.New("geo: unsupported geometry type")

// InvalidGeometryError reports a shape that cannot be used for area math:
// malformed rings, out-of-range coordinates, self-intersections or a
// failure of the planar engine.
type InvalidGeometryError struct {
	Reason string
	Err    error
}

func (e *InvalidGeometryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("geo: invalid geometry: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("geo: invalid geometry: %s", e.Reason)
}

func (e *InvalidGeometryError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return &InvalidGeometryError{Reason: fmt.Sprintf(format, args...)}
}
