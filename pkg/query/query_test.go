package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/stac-coverage/pkg/cache"
	"github.com/robert-malhotra/stac-coverage/pkg/cql2"
	"github.com/robert-malhotra/stac-coverage/pkg/fetch"
	"github.com/robert-malhotra/stac-coverage/pkg/geo"
	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/traverse"
)

var (
	march5 = time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	march6 = time.Date(2024, 3, 6, 10, 30, 0, 0, time.UTC)
)

// stubCollector returns canned results and counts calls.
type stubCollector struct {
	mu    sync.Mutex
	items []*index.Item
	err   error
	calls int
}

func (s *stubCollector) Collect(context.Context, string) (*traverse.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &traverse.Result{Items: s.items, Summary: traverse.Summary{Items: len(s.items)}}, nil
}

func box(minLon, minLat, maxLon, maxLat float64) geo.MultiPolygon {
	return geo.MultiPolygon{geo.BBox{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}.Polygon()}
}

func boxItem(id string, mp geo.MultiPolygon, at time.Time, props map[string]any) *index.Item {
	if props == nil {
		props = map[string]any{}
	}
	return &index.Item{
		ID:         id,
		Collection: "optical",
		SourceURL:  "https://stac.example.com/optical/" + id + ".json",
		BBox:       mp.Bounds(),
		Geometry:   mp,
		Start:      at,
		End:        at,
		Properties: props,
	}
}

func engineWith(t *testing.T, items ...*index.Item) *Engine {
	t.Helper()
	e := New(&stubCollector{items: items}, "https://stac.example.com/catalog.json")
	_, err := e.Refresh(context.Background())
	require.NoError(t, err)
	return e
}

func keys(items []*index.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestCoverageSingleItemInsideQuery(t *testing.T) {
	a := boxItem("A", box(10, 10, 11, 11), march5, nil)
	b := boxItem("B", box(50, 50, 51, 51), march5, nil)
	e := engineWith(t, a, b)
	q := box(9, 9, 12, 12)

	res, err := e.CheckCoverage(context.Background(), q, index.DayWindow(march5, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, keys(res.Items()))

	areaA, err := geo.Area(a.Geometry)
	require.NoError(t, err)
	areaQ, err := geo.Area(q)
	require.NoError(t, err)
	assert.InEpsilon(t, areaA/areaQ, res.Ratio, 0.005)
	assert.InEpsilon(t, areaQ, res.AreaM2, 0.001)
	assert.InDelta(t, res.Ratio, res.Matches[0].Ratio, 1e-9)
}

func TestCoverageOverlapIsCountedOnce(t *testing.T) {
	first := boxItem("first", box(10, 10, 11, 11), march5, nil)
	second := boxItem("second", box(10, 10, 11, 11), march6, nil)
	e := engineWith(t, first, second)

	res, err := e.CheckCoverage(context.Background(), box(10, 10, 12, 11), index.Window{})
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.InDelta(t, 0.5, res.Ratio, 0.01)
	assert.InEpsilon(t, res.Matches[0].AreaM2, res.Covered, 1e-6)

	// equal ratios: newest acquisition first
	assert.Equal(t, []string{"second", "first"}, keys(res.Items()))
}

func TestCoverageOrdering(t *testing.T) {
	small := boxItem("small", box(10, 10, 10.5, 11), march5, nil)
	big := boxItem("big", box(10, 10, 11, 11), march5, nil)
	twin := boxItem("big-twin", box(10, 10, 11, 11), march5, nil)
	e := engineWith(t, small, twin, big)

	q := box(10, 10, 11, 11)
	first, err := e.CheckCoverage(context.Background(), q, index.Window{})
	require.NoError(t, err)
	assert.Equal(t, []string{"big", "big-twin", "small"}, keys(first.Items()))
	assert.InDelta(t, 1.0, first.Ratio, 1e-6)

	for range 5 {
		again, err := e.CheckCoverage(context.Background(), q, index.Window{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCoverageNothingIntersects(t *testing.T) {
	e := engineWith(t, boxItem("far", box(50, 50, 51, 51), march5, nil))

	res, err := e.CheckCoverage(context.Background(), box(0, 0, 1, 1), index.Window{})
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Zero(t, res.Ratio)
}

func TestCoverageTemporalOverlap(t *testing.T) {
	ranged := boxItem("ranged", box(0, 0, 1, 1), time.Time{}, nil)
	ranged.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ranged.End = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	e := engineWith(t, ranged)

	w := index.Window{Start: time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)}
	res, err := e.CheckCoverage(context.Background(), box(0, 0, 1, 1), w)
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1, "partial temporal overlap counts")

	w = index.Window{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	res, err = e.CheckCoverage(context.Background(), box(0, 0, 1, 1), w)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
}

func TestCoverageBounds(t *testing.T) {
	e := engineWith(t,
		boxItem("a", box(-5, -5, 5, 5), march5, nil),
		boxItem("b", box(0, 0, 3, 3), march5, nil),
		boxItem("c", box(2, -1, 8, 1), march5, nil),
	)
	for _, q := range []geo.MultiPolygon{
		box(-1, -1, 1, 1),
		box(-10, -10, 10, 10),
		box(4, 0, 9, 0.5),
		box(20, 20, 21, 21),
	} {
		res, err := e.CheckCoverage(context.Background(), q, index.Window{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Ratio, 0.0)
		assert.LessOrEqual(t, res.Ratio, 1.0)
	}
}

func TestCoverageAcrossAntimeridian(t *testing.T) {
	east := boxItem("east", box(179, 0, 180, 1), march5, nil)
	west := boxItem("west", box(-180, 0, -179, 1), march5, nil)
	e := engineWith(t, east, west)

	q := geo.MultiPolygon{geo.Polygon{geo.Ring{{Lon: 179, Lat: 0}, {Lon: -179, Lat: 0}, {Lon: -179, Lat: 1}, {Lon: 179, Lat: 1}, {Lon: 179, Lat: 0}}}}
	res, err := e.CheckCoverage(context.Background(), q, index.Window{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"east", "west"}, keys(res.Items()))
	assert.InDelta(t, 1.0, res.Ratio, 0.01)
}

func TestCoverageRejectsBadInput(t *testing.T) {
	e := engineWith(t, boxItem("a", box(0, 0, 1, 1), march5, nil))

	bowtie := geo.MultiPolygon{geo.Polygon{geo.Ring{{Lon: 0, Lat: 0}, {Lon: 2, Lat: 2}, {Lon: 2, Lat: 0}, {Lon: 0, Lat: 1}, {Lon: 0, Lat: 0}}}}
	_, err := e.CheckCoverage(context.Background(), bowtie, index.Window{})
	var ge *geo.InvalidGeometryError
	assert.ErrorAs(t, err, &ge)

	_, err = e.CheckCoverage(context.Background(), box(0, 0, 1, 1), index.Window{Start: march6, End: march5})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = e.Coverage(context.Background(), "0,0,1,1", "2024-03-06", "2024-03-05")
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = e.Coverage(context.Background(), "0,0,1,1", "yesterday", "")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCoverageWrapperFormats(t *testing.T) {
	e := engineWith(t, boxItem("a", box(0, 0, 1, 1), march5, nil))

	for _, shape := range []string{
		"0,0,1,1",
		"POLYGON((0 0, 1 0, 1 1, 0 1, 0 0))",
		`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`,
	} {
		res, err := e.Coverage(context.Background(), shape, "2024-03-05", "2024-03-05")
		require.NoError(t, err, shape)
		assert.Equal(t, []string{"a"}, keys(res.Items()), shape)
	}
}

func TestCoverageCellReport(t *testing.T) {
	e := engineWith(t, boxItem("west-half", box(0, 0, 0.5, 1), march5, nil))

	res, err := e.CheckCoverage(context.Background(), box(0, 0, 1, 1), index.Window{}, WithCells(5))
	require.NoError(t, err)
	require.NotNil(t, res.Cells)
	assert.Equal(t, 5, res.Cells.Resolution)
	assert.NotEmpty(t, res.Cells.Covered)
	assert.NotEmpty(t, res.Cells.Uncovered)
	for _, c := range res.Cells.Covered {
		assert.LessOrEqual(t, c.Center.Lon, 0.5)
	}
}

func TestCoverageWhere(t *testing.T) {
	e := engineWith(t,
		boxItem("cloudy", box(0, 0, 1, 1), march5, map[string]any{"eo:cloud_cover": 80.0}),
		boxItem("clear", box(0, 0, 0.5, 1), march5, map[string]any{"eo:cloud_cover": 5.0}),
	)
	f, err := cql2.Compile("eo:cloud_cover < 20")
	require.NoError(t, err)

	res, err := e.CheckCoverage(context.Background(), box(0, 0, 1, 1), index.Window{}, Where(f))
	require.NoError(t, err)
	assert.Equal(t, []string{"clear"}, keys(res.Items()))
	assert.InDelta(t, 0.5, res.Ratio, 0.01)
}

func TestMetadataDateTolerance(t *testing.T) {
	exact := boxItem("exact", box(10, 10, 11, 11), march5, nil)
	nextDay := boxItem("next-day", box(10, 10, 11, 11), march6, nil)
	e := engineWith(t, exact, nextDay)
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	got, err := e.GetMetadata(context.Background(), 10.5, 10.5, date, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"exact"}, keys(got))

	got, err = e.GetMetadata(context.Background(), 10.5, 10.5, date, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "next-day"}, keys(got))

	got, err = e.GetMetadata(context.Background(), 30, 30, date, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMetadataOnAntimeridian(t *testing.T) {
	east := boxItem("east", box(179, 0, 180, 1), march5, nil)
	west := boxItem("west", box(-180, 0, -179, 1), march5, nil)
	e := engineWith(t, east, west)

	got, err := e.GetMetadata(context.Background(), 180, 0.5, march5, 0)
	require.NoError(t, err)
	assert.Contains(t, keys(got), "east")

	got, err = e.GetMetadata(context.Background(), -180, 0.5, march5, 0)
	require.NoError(t, err)
	assert.Contains(t, keys(got), "west")

	got, err = e.GetMetadata(context.Background(), 179.5, 0.5, march5, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"east"}, keys(got))
}

func TestMetadataOrdering(t *testing.T) {
	mk := func(id string, at time.Time) *index.Item { return boxItem(id, box(0, 0, 1, 1), at, nil) }
	date := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	e := engineWith(t,
		mk("far", date.Add(-30*time.Hour)),
		mk("near-b", date.Add(time.Hour)),
		mk("near-a", date.Add(-time.Hour)),
		mk("spot-on", date),
	)

	got, err := e.GetMetadata(context.Background(), 0.5, 0.5, date, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"spot-on", "near-a", "near-b", "far"}, keys(got))
}

func TestMetadataArguments(t *testing.T) {
	e := engineWith(t, boxItem("a", box(0, 0, 1, 1), march5, nil))

	_, err := e.GetMetadata(context.Background(), 0, 95, march5, 0)
	var ge *geo.InvalidGeometryError
	assert.ErrorAs(t, err, &ge)

	_, err = e.GetMetadata(context.Background(), 0.5, 0.5, march5, -1)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	got, err := e.Metadata(context.Background(), 0.5, 0.5, "2024-03-05", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys(got))

	_, err = e.Metadata(context.Background(), 0.5, 0.5, "05/03/2024", 0)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestQueriesNeedAnIndex(t *testing.T) {
	e := New(&stubCollector{}, "https://stac.example.com/catalog.json")
	_, err := e.GetMetadata(context.Background(), 0, 0, march5, 0)
	assert.ErrorIs(t, err, ErrNoIndex)
	_, err = e.CheckCoverage(context.Background(), box(0, 0, 1, 1), index.Window{})
	assert.ErrorIs(t, err, ErrNoIndex)
}

func TestFailedRefreshKeepsPreviousIndex(t *testing.T) {
	col := &stubCollector{items: []*index.Item{boxItem("a", box(0, 0, 1, 1), march5, nil)}}
	e := New(col, "https://stac.example.com/catalog.json")
	first, err := e.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Generation())

	col.err = &fetch.FetchError{Kind: fetch.KindNetwork, URL: "https://stac.example.com/catalog.json"}
	_, err = e.Refresh(context.Background())
	var fe *fetch.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Same(t, first, e.Current())

	col.err = nil
	second, err := e.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Generation())
	assert.Same(t, second, e.Current())
}

func TestEnsureFresh(t *testing.T) {
	now := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	col := &stubCollector{items: []*index.Item{boxItem("a", box(0, 0, 1, 1), march5, nil)}}
	e := New(col, "root", WithTTL(time.Hour), WithClock(func() time.Time { return now }))

	_, err := e.EnsureFresh(context.Background())
	require.NoError(t, err)
	_, err = e.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, col.calls)
	assert.Equal(t, now, e.LastRefresh())

	now = now.Add(time.Hour)
	_, err = e.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, col.calls)
}

// The scenario end to end: catalog documents through the cache and walker
// into the engine.
func TestEndToEndThroughWalker(t *testing.T) {
	const base = "https://stac.example.com"
	item := func(id string, bbox []float64) map[string]any {
		return map[string]any{
			"type": "Feature", "stac_version": "1.0.0", "id": id, "bbox": bbox, "geometry": nil,
			"properties": map[string]any{"datetime": "2024-03-05T10:00:00Z", "eo:cloud_cover": 3.5},
			"links":      []any{}, "assets": map[string]any{},
		}
	}
	mem := fetch.NewMapFetcher().
		SetJSON(base+"/catalog.json", map[string]any{
			"type": "Catalog", "stac_version": "1.0.0", "id": "root", "description": "root",
			"links": []map[string]any{{"rel": "child", "href": "./c/collection.json"}},
		}).
		SetJSON(base+"/c/collection.json", map[string]any{
			"type": "Collection", "stac_version": "1.0.0", "id": "optical", "description": "c", "license": "proprietary",
			"extent": map[string]any{
				"spatial":  map[string]any{"bbox": [][]float64{{-180, -90, 180, 90}}},
				"temporal": map[string]any{"interval": [][]any{{nil, nil}}},
			},
			"links": []map[string]any{
				{"rel": "item", "href": "A.json"},
				{"rel": "item", "href": "B.json"},
				{"rel": "parent", "href": "../catalog.json"},
			},
		}).
		SetJSON(base+"/c/A.json", item("A", []float64{10, 10, 11, 11})).
		SetJSON(base+"/c/B.json", item("B", []float64{50, 50, 51, 51}))

	c, err := cache.New(mem)
	require.NoError(t, err)
	e := New(traverse.New(c), base+"/catalog.json")
	idx, err := e.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, e.Summary().Items)

	res, err := e.Coverage(context.Background(), "9,9,12,12", "2024-03-05", "2024-03-05")
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "A", res.Matches[0].Item.ID)
	assert.Equal(t, "optical", res.Matches[0].Item.Collection)
	assert.InDelta(t, 1.0/9, res.Ratio, 0.01)

	got, err := e.Metadata(context.Background(), 50.5, 50.5, "2024-03-05", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, keys(got))
	cc, ok := got[0].CloudCover()
	assert.True(t, ok)
	assert.Equal(t, 3.5, cc)
}
