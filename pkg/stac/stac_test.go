package stac

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCatalog(t *testing.T) {
	body := `{
		"type": "Catalog",
		"stac_version": "1.0.0",
		"id": "root",
		"description": "test",
		"links": [
			{"rel": "self", "href": "https://example.com/catalog.json"},
			{"rel": "child", "href": "./collections/a/collection.json", "type": "application/json"},
			{"rel": "child", "href": "https://EXAMPLE.com:443/collections/b/../b/collection.json#frag"},
			{"rel": "license", "href": "https://example.com/license"},
			{"rel": "child", "href": ""}
		]
	}`
	node, err := Decode("https://example.com/catalog.json", []byte(body))
	require.NoError(t, err)

	assert.Equal(t, "root", node.ID)
	assert.Equal(t, TypeCatalog, node.Type)
	assert.Equal(t, 1, node.DroppedLinks)

	children := node.LinksOf(RelChild)
	require.Len(t, children, 2)
	assert.Equal(t, "https://example.com/collections/a/collection.json", children[0].URL)
	assert.Equal(t, "application/json", children[0].MediaType)
	assert.Equal(t, "https://example.com/collections/b/collection.json", children[1].URL)

	require.Len(t, node.LinksOf(RelOther), 1)
	assert.Empty(t, node.LinksOf(RelItem))
}

func TestDecodeCollection(t *testing.T) {
	body := `{
		"type": "Collection",
		"stac_version": "1.0.0",
		"id": "optical",
		"description": "d",
		"license": "CC-BY-4.0",
		"extent": {
			"spatial": {"bbox": [[-10, -5, 10, 5]]},
			"temporal": {"interval": [["2023-01-01T00:00:00Z", null]]}
		},
		"links": [{"rel": "item", "href": "items/a.json"}]
	}`
	node, err := Decode("https://example.com/optical/collection.json", []byte(body))
	require.NoError(t, err)

	assert.Equal(t, TypeCollection, node.Type)
	require.NotNil(t, node.BBox)
	assert.Equal(t, 10.0, node.BBox.MaxLon)
	require.NotNil(t, node.Temporal)
	assert.True(t, node.Temporal.OpenEnd())
	assert.False(t, node.Temporal.OpenStart())

	items := node.LinksOf(RelItem)
	require.Len(t, items, 1)
	assert.Equal(t, "https://example.com/optical/items/a.json", items[0].URL)
}

func TestDecodeItem(t *testing.T) {
	body := `{
		"type": "Feature",
		"stac_version": "1.0.0",
		"id": "scene-1",
		"collection": "optical",
		"geometry": {"type": "Polygon", "coordinates": [[[10,10],[11,10],[11,11],[10,11],[10,10]]]},
		"bbox": [10, 10, 11, 11],
		"properties": {
			"datetime": "2024-03-05T10:20:30Z",
			"eo:cloud_cover": 12.5,
			"platform": "wyvern-dragonette-1",
			"instruments": ["hsi", "pan"],
			"nested": {"a": 1},
			"missing": null
		},
		"links": [{"rel": "parent", "href": "../collection.json"}],
		"assets": {}
	}`
	node, err := Decode("https://example.com/optical/items/scene-1.json", []byte(body))
	require.NoError(t, err)

	assert.Equal(t, TypeItem, node.Type)
	assert.Equal(t, "optical", node.Collection)
	assert.Len(t, node.Geometry, 1)
	require.NotNil(t, node.Temporal)
	assert.True(t, node.Temporal.IsInstant())
	assert.Equal(t, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), node.Temporal.Start)
	assert.Equal(t, 12.5, node.Properties["eo:cloud_cover"])
	assert.Equal(t, "wyvern-dragonette-1", node.Properties["platform"])
	assert.Equal(t, "hsi,pan", node.Properties["instruments"])
	assert.NotContains(t, node.Properties, "nested")
	assert.NotContains(t, node.Properties, "missing")
	assert.Equal(t, "https://example.com/optical/collection.json", node.LinksOf(RelParent)[0].URL)
}

func TestDecodeItemRangeAndBBoxFallback(t *testing.T) {
	body := `{
		"type": "Feature",
		"id": "ranged",
		"geometry": {"type": "Point", "coordinates": [1, 1]},
		"bbox": [0, 0, 2, 2],
		"properties": {
			"datetime": null,
			"start_datetime": "2024-01-01T00:00:00Z",
			"end_datetime": "2024-01-02T00:00:00Z"
		},
		"links": []
	}`
	node, err := Decode("https://example.com/ranged.json", []byte(body))
	require.NoError(t, err)
	assert.True(t, node.Geometry.IsEmpty())
	require.NotNil(t, node.BBox)
	assert.False(t, node.Temporal.IsInstant())
	assert.Equal(t, 24*time.Hour, node.Temporal.End.Sub(node.Temporal.Start))
}

func TestDecodeItemAssetBands(t *testing.T) {
	body := `{
		"type": "Feature",
		"stac_version": "1.0.0",
		"stac_extensions": ["https://stac-extensions.github.io/eo/v1.1.0/schema.json"],
		"id": "scene-2",
		"geometry": null,
		"bbox": [0, 0, 1, 1],
		"properties": {"datetime": "2024-03-05T00:00:00Z", "eo:instrument": "hsi", "eo:cloud_cover": 4},
		"links": [],
		"assets": {
			"visual": {"href": "v.tif", "eo:bands": [
				{"name": "B02", "common_name": "blue", "center_wavelength": 0.49},
				{"name": "B03", "common_name": "green", "center_wavelength": 0.56}
			]},
			"analytic": {"href": "a.tif",
				"eo:bands": [{"name": "Band_503"}],
				"raster:bands": [{"name": "ignored"}]
			},
			"thermal": {"href": "t.tif", "raster:bands": [{"name": "TIR", "center_wavelength": 10.9}]},
			"odd": {"href": "o.tif", "eo:bands": "not-a-list"},
			"thumbnail": {"href": "thumb.png"}
		}
	}`
	node, err := Decode("https://example.com/scene-2.json", []byte(body))
	require.NoError(t, err)

	require.Len(t, node.Bands, 4)
	assert.Equal(t, Band{Name: "Band_503", Asset: "analytic"}, node.Bands[0])
	assert.Equal(t, "TIR", node.Bands[1].Name)
	assert.Equal(t, "thermal", node.Bands[1].Asset)
	require.NotNil(t, node.Bands[1].CenterWavelength)
	assert.Equal(t, 10.9, *node.Bands[1].CenterWavelength)
	assert.Equal(t, "blue", node.Bands[2].Label())
	assert.Equal(t, "visual", node.Bands[2].Asset)
	assert.Equal(t, "B03", node.Bands[3].Name)

	assert.Equal(t, "hsi", node.Properties["eo:instrument"])
	assert.Equal(t, 4.0, node.Properties["eo:cloud_cover"])
}

func TestDecodeItemWithoutBands(t *testing.T) {
	body := `{"type": "Feature", "stac_version": "1.0.0", "id": "x", "geometry": null, "bbox": [0, 0, 1, 1],
		"properties": {"datetime": "2024-03-05T00:00:00Z"}, "links": [], "assets": {}}`
	node, err := Decode("https://example.com/x.json", []byte(body))
	require.NoError(t, err)
	assert.Empty(t, node.Bands)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]struct {
		body string
		code string
	}{
		"not json":     {`<html>`, CodeNotJSON},
		"missing type": {`{"id": "x"}`, CodeMissingType},
		"unknown type": {`{"type": "Thing", "id": "x"}`, CodeUnknownType},
		"no footprint": {`{"type": "Feature", "id": "x", "geometry": null, "properties": {"datetime": "2024-01-01T00:00:00Z"}, "links": []}`, CodeNoFootprint},
		"no time":      {`{"type": "Feature", "id": "x", "bbox": [0,0,1,1], "geometry": null, "properties": {}, "links": []}`, CodeNoTemporal},
		"bad bbox":     {`{"type": "Feature", "id": "x", "bbox": [0,0,1], "geometry": null, "properties": {"datetime": "2024-01-01T00:00:00Z"}, "links": []}`, CodeBadBBox},
		"bad time":     {`{"type": "Feature", "id": "x", "bbox": [0,0,1,1], "geometry": null, "properties": {"datetime": "yesterday"}, "links": []}`, CodeBadTemporal},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode("https://example.com/x.json", []byte(tc.body))
			var malformed *MalformedNodeError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, tc.code, malformed.Code)
			assert.Equal(t, "https://example.com/x.json", malformed.URL)
			assert.Contains(t, err.Error(), "https://example.com/x.json")
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	got, err := NormalizeURL("HTTPS://Example.COM:443/a//b/./c.json?z=1&a=2#x")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a/b/c.json?a=2&z=1", got)

	_, err = NormalizeURL("relative/path.json")
	assert.Error(t, err)

	got, err = NormalizeURL("file:///tmp/cat/../cat/catalog.json")
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/cat/catalog.json", got)
}

func TestResolve(t *testing.T) {
	got, err := Resolve("s3://bucket/root/catalog.json", "child/collection.json")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/root/child/collection.json", got)

	got, err = Resolve("file:///data/catalog.json", "../other/item.json")
	require.NoError(t, err)
	assert.Equal(t, "file:///other/item.json", got)
}

func TestLocation(t *testing.T) {
	got, err := Location("https://example.com/catalog.json")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/catalog.json", got)

	got, err = Location("/data/catalog.json")
	require.NoError(t, err)
	assert.Equal(t, "file:///data/catalog.json", got)

	_, err = Location("  ")
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{"2024-03-05", "2024-03-05T00:00:00", "2024-03-05T00:00:00Z", "2024-03-05T02:00:00+02:00"} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got, in)
	}
	_, err := ParseTime("05/03/2024")
	assert.Error(t, err)
}
