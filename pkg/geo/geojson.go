package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type geojsonObject struct {
	Type        string            `json:"type"`
	Coordinates json.RawMessage   `json:"coordinates"`
	Geometry    json.RawMessage   `json:"geometry"`
	Features    []json.RawMessage `json:"features"`
	Geometries  []json.RawMessage `json:"geometries"`
}

// ParseGeoJSON decodes a Polygon or MultiPolygon. Features, feature
// collections and geometry collections are unwrapped; every member must be
// polygonal. Rings are closed if needed and unwrapped across the
// antimeridian.
func ParseGeoJSON(data []byte) (MultiPolygon, error) {
	var obj geojsonObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	switch strings.TrimSpace(obj.Type) {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(obj.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("parse polygon coords: %w", err)
		}
		poly, err := polygonFromCoords(rings)
		if err != nil {
			return nil, err
		}
		return Unwrap(MultiPolygon{poly}), nil
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(obj.Coordinates, &polys); err != nil {
			return nil, fmt.Errorf("parse multipolygon coords: %w", err)
		}
		if len(polys) == 0 {
			return nil, invalid("empty multipolygon")
		}
		mp := make(MultiPolygon, 0, len(polys))
		for i, rings := range polys {
			poly, err := polygonFromCoords(rings)
			if err != nil {
				return nil, fmt.Errorf("polygon %d: %w", i, err)
			}
			mp = append(mp, poly)
		}
		return Unwrap(mp), nil
	case "Feature":
		if len(obj.Geometry) == 0 || string(obj.Geometry) == "null" {
			return nil, invalid("feature has no geometry")
		}
		return ParseGeoJSON(obj.Geometry)
	case "FeatureCollection":
		return collect(obj.Features)
	case "GeometryCollection":
		return collect(obj.Geometries)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGeometry, obj.Type)
	}
}

// FromGeoJSONValue decodes a geometry that has already been unmarshalled
// into generic Go values, as found in STAC item documents.
func FromGeoJSONValue(v any) (MultiPolygon, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	return ParseGeoJSON(data)
}

func collect(members []json.RawMessage) (MultiPolygon, error) {
	if len(members) == 0 {
		return nil, invalid("empty collection")
	}
	var out MultiPolygon
	for i, m := range members {
		mp, err := ParseGeoJSON(m)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		out = append(out, mp...)
	}
	return out, nil
}

func polygonFromCoords(rings [][][]float64) (Polygon, error) {
	if len(rings) == 0 {
		return nil, invalid("empty polygon")
	}
	poly := make(Polygon, 0, len(rings))
	for i, coords := range rings {
		ring := make(Ring, 0, len(coords)+1)
		for _, xy := range coords {
			if len(xy) < 2 {
				return nil, invalid("ring %d: coordinate must be [x,y]", i)
			}
			ring = append(ring, Point{Lon: xy[0], Lat: xy[1]})
		}
		ring = closeRing(ring)
		if len(ring) < 4 {
			return nil, invalid("ring %d has < 4 vertices", i)
		}
		poly = append(poly, ring)
	}
	return poly, nil
}

func closeRing(r Ring) Ring {
	if len(r) > 0 && r[0] != r[len(r)-1] {
		r = append(r, r[0])
	}
	return r
}

// ParseShape accepts the formats offered to users: a GeoJSON object, WKT
// text, or a "minLon,minLat,maxLon,maxLat" bbox shorthand.
func ParseShape(input string) (MultiPolygon, error) {
	s := strings.TrimSpace(input)
	switch {
	case s == "":
		return nil, invalid("empty shape")
	case strings.HasPrefix(s, "{"):
		return ParseGeoJSON([]byte(s))
	case looksLikeBBox(s):
		vals, err := parseFloats(s)
		if err != nil {
			return nil, err
		}
		b, err := NewBBox(vals)
		if err != nil {
			return nil, err
		}
		return MultiPolygon{b.Polygon()}, nil
	default:
		return ParseWKT(s)
	}
}

func looksLikeBBox(s string) bool {
	return strings.Count(s, ",") == 3 && !strings.ContainsAny(s, "()")
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("geo: bbox value %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
