package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minLon, minLat, maxLon, maxLat float64) MultiPolygon {
	return MultiPolygon{BBox{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}.Polygon()}
}

func TestNewBBox(t *testing.T) {
	b, err := NewBBox([]float64{10, 20, 0, 11, 21, 100})
	require.NoError(t, err)
	assert.Equal(t, BBox{MinLon: 10, MinLat: 20, MaxLon: 11, MaxLat: 21}, b)

	_, err = NewBBox([]float64{1, 2, 3})
	assert.Error(t, err)

	_, err = NewBBox([]float64{0, 10, 1, 5})
	var ig *InvalidGeometryError
	assert.True(t, errors.As(err, &ig))
}

func TestBBoxAntimeridian(t *testing.T) {
	b := BBox{MinLon: 170, MinLat: -10, MaxLon: -170, MaxLat: 10}
	require.True(t, b.CrossesAntimeridian())
	assert.Len(t, b.Split(), 2)
	assert.InDelta(t, 20, b.Width(), 1e-9)
	assert.InDelta(t, -180, b.Center().Lon, 1e-9)

	assert.True(t, b.Intersects(BBox{MinLon: 175, MinLat: 0, MaxLon: 176, MaxLat: 1}))
	assert.True(t, b.Intersects(BBox{MinLon: -175, MinLat: 0, MaxLon: -174, MaxLat: 1}))
	assert.False(t, b.Intersects(BBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}))

	assert.True(t, b.ContainsPoint(Point{Lon: 180, Lat: 0}))
	assert.True(t, b.ContainsPoint(Point{Lon: 185, Lat: 0}))
	assert.False(t, b.ContainsPoint(Point{Lon: 160, Lat: 0}))

	ring := b.Polygon()[0]
	assert.InDelta(t, 190, ring[1].Lon, 1e-9)
}

func TestBBoxIntersectsTouching(t *testing.T) {
	a := BBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}
	assert.True(t, a.Intersects(BBox{MinLon: 1, MinLat: 1, MaxLon: 2, MaxLat: 2}))
	assert.False(t, a.Intersects(BBox{MinLon: 1.01, MinLat: 0, MaxLon: 2, MaxLat: 1}))
}

func TestParseGeoJSON(t *testing.T) {
	t.Run("polygon closes ring", func(t *testing.T) {
		mp, err := ParseGeoJSON([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1]]]}`))
		require.NoError(t, err)
		require.Len(t, mp, 1)
		ring := mp[0][0]
		assert.Len(t, ring, 5)
		assert.Equal(t, ring[0], ring[4])
	})

	t.Run("feature", func(t *testing.T) {
		mp, err := ParseGeoJSON([]byte(`{"type":"Feature","properties":{},"geometry":{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]],[[[5,5],[6,5],[6,6],[5,5]]]]}}`))
		require.NoError(t, err)
		assert.Len(t, mp, 2)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := ParseGeoJSON([]byte(`{"type":"Point","coordinates":[0,0]}`))
		assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	})

	t.Run("too few vertices", func(t *testing.T) {
		_, err := ParseGeoJSON([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0]]]}`))
		var ig *InvalidGeometryError
		assert.True(t, errors.As(err, &ig))
	})

	t.Run("antimeridian unwrapped", func(t *testing.T) {
		mp, err := ParseGeoJSON([]byte(`{"type":"Polygon","coordinates":[[[179,0],[-179,0],[-179,1],[179,1],[179,0]]]}`))
		require.NoError(t, err)
		assert.InDelta(t, 181, mp[0][0][1].Lon, 1e-9)
		b := mp.Bounds()
		assert.True(t, b.CrossesAntimeridian())
		assert.InDelta(t, 179, b.MinLon, 1e-9)
		assert.InDelta(t, -179, b.MaxLon, 1e-9)
	})
}

func TestParseShapeBBox(t *testing.T) {
	mp, err := ParseShape(" 0, 0, 2, 1 ")
	require.NoError(t, err)
	assert.Equal(t, BBox{MinLon: 0, MinLat: 0, MaxLon: 2, MaxLat: 1}, mp.Bounds())

	_, err = ParseShape("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, square(0, 0, 1, 1).Validate())

	bowtie := MultiPolygon{{Ring{{0, 0}, {2, 2}, {2, 0}, {0, 1}, {0, 0}}}}
	err := bowtie.Validate()
	var ig *InvalidGeometryError
	require.True(t, errors.As(err, &ig))
	assert.Contains(t, ig.Reason, "self-intersects")

	flat := MultiPolygon{{Ring{{0, 0}, {1, 0}, {2, 0}, {0, 0}}}}
	assert.Error(t, flat.Validate())

	assert.Error(t, MultiPolygon{}.Validate())
	assert.Error(t, square(0, 0, 200, 1).Validate())
}

func TestContainsPoint(t *testing.T) {
	withHole := MultiPolygon{{
		Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
	}}
	assert.True(t, withHole.ContainsPoint(Point{1, 1}))
	assert.True(t, withHole.ContainsPoint(Point{0, 5}))
	assert.False(t, withHole.ContainsPoint(Point{5, 5}))
	assert.False(t, withHole.ContainsPoint(Point{11, 5}))

	cross := square(179, 0, -179, 1)
	assert.True(t, cross.ContainsPoint(Point{-179.5, 0.5}))
	assert.True(t, cross.ContainsPoint(Point{179.5, 0.5}))
	assert.False(t, cross.ContainsPoint(Point{0, 0.5}))
}

func TestProjectionWrapInvariant(t *testing.T) {
	p := NewProjection(Point{Lon: 180, Lat: 0})
	x1, y1 := p.Forward(Point{Lon: 179.5, Lat: 0.5})
	x2, y2 := p.Forward(Point{Lon: -180.5, Lat: 0.5})
	assert.InDelta(t, x1, x2, 1e-6)
	assert.InDelta(t, y1, y2, 1e-6)

	x, y := p.Forward(Point{Lon: 180, Lat: 0})
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
}

func TestAreaOneDegreeAtEquator(t *testing.T) {
	a, err := Area(square(0, 0, 1, 1))
	require.NoError(t, err)
	// ellipsoidal area of the 1x1 degree cell north of the equator
	assert.InEpsilon(t, 12308.8e6, a, 0.01)
}

func TestAreaAcrossAntimeridianMatches(t *testing.T) {
	a, err := Area(square(0, 10, 2, 12))
	require.NoError(t, err)
	b, err := Area(square(179, 10, -179, 12))
	require.NoError(t, err)
	assert.InEpsilon(t, a, b, 1e-6)
}

func TestFootprintIntersectionAndUnion(t *testing.T) {
	area := square(0, 0, 2, 1)
	pl := PlaneFor(area)
	fa, err := pl.Footprint(area)
	require.NoError(t, err)
	total, err := fa.Area()
	require.NoError(t, err)

	left, err := pl.Footprint(square(-1, -1, 1, 2))
	require.NoError(t, err)
	overlap, err := pl.Footprint(square(0.5, -1, 1.5, 2))
	require.NoError(t, err)

	il, err := fa.Intersection(left)
	require.NoError(t, err)
	io, err := fa.Intersection(overlap)
	require.NoError(t, err)

	al, err := il.Area()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, al/total, 0.01)

	u, err := Union(il, io)
	require.NoError(t, err)
	au, err := u.Area()
	require.NoError(t, err)
	assert.InDelta(t, 0.75, au/total, 0.01)

	far, err := pl.Footprint(square(10, 10, 11, 11))
	require.NoError(t, err)
	none, err := fa.Intersection(far)
	require.NoError(t, err)
	an, err := none.Area()
	require.NoError(t, err)
	assert.Zero(t, an)
}

func TestEmptyFootprint(t *testing.T) {
	var f *Footprint
	assert.True(t, f.IsEmpty())
	a, err := (&Footprint{}).Area()
	require.NoError(t, err)
	assert.Zero(t, a)

	u, err := Union()
	require.NoError(t, err)
	assert.True(t, u.IsEmpty())
}

func TestParseWKT(t *testing.T) {
	mp, err := ParseWKT("POLYGON((0 0, 1 0, 1 1, 0 1, 0 0))")
	require.NoError(t, err)
	assert.Equal(t, BBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, mp.Bounds())

	mp, err = ParseShape("MULTIPOLYGON(((0 0, 1 0, 1 1, 0 0)), ((5 5, 6 5, 6 6, 5 5)))")
	require.NoError(t, err)
	assert.Len(t, mp, 2)

	_, err = ParseWKT("POINT(1 2)")
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
}

func TestCells(t *testing.T) {
	cells, res, err := Cells(square(10, 10, 11, 11), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, res)
	assert.NotEmpty(t, cells)
	for i := 1; i < len(cells); i++ {
		assert.Less(t, cells[i-1].ID, cells[i].ID)
	}

	lowered, res, err := Cells(square(10, 10, 11, 11), 7, 10)
	require.NoError(t, err)
	assert.Less(t, res, 7)
	assert.LessOrEqual(t, len(lowered), 10)

	_, _, err = Cells(square(0, 0, 1, 1), 16, 0)
	assert.Error(t, err)
}

func TestWrapLon(t *testing.T) {
	assert.InDelta(t, -180, WrapLon(180), 1e-12)
	assert.InDelta(t, -179, WrapLon(181), 1e-12)
	assert.InDelta(t, 170, WrapLon(-190), 1e-12)
	assert.False(t, math.IsNaN(WrapLon(720)))
}

func TestNormalizeLon(t *testing.T) {
	assert.Equal(t, 180.0, NormalizeLon(180))
	assert.InDelta(t, -179, NormalizeLon(181), 1e-12)
	assert.InDelta(t, -180, NormalizeLon(-180), 1e-12)
	assert.InDelta(t, 0, NormalizeLon(360), 1e-12)

	b := BBox{MinLon: 179, MinLat: 0, MaxLon: 180, MaxLat: 1}
	assert.True(t, b.ContainsPoint(Point{Lon: NormalizeLon(180), Lat: 0.5}))
}
