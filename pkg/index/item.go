package index

import (
	"fmt"
	"strconv"
	"time"

	"github.com/robert-malhotra/stac-coverage/pkg/geo"
	"github.com/robert-malhotra/stac-coverage/pkg/stac"
)

// Item is the indexed, immutable form of a STAC item.
type Item struct {
	ID         string
	Collection string
	SourceURL  string
	Title      string

	BBox geo.BBox
	// Geometry is the item footprint, or the bbox rectangle when the item
	// had no usable geometry.
	Geometry         geo.MultiPolygon
	GeometryFromBBox bool

	// Start and End bound the acquisition. An instant has Start == End. A
	// zero value is open on that side.
	Start time.Time
	End   time.Time

	Properties map[string]any
	// Bands lists the spectral bands declared on the item's assets.
	Bands []stac.Band
}

// FromNode converts an item node. Nodes of other types are rejected.
func FromNode(n *stac.Node) (*Item, error) {
	if n == nil || n.Type != stac.TypeItem {
		return nil, fmt.Errorf("index: node is not an item")
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	it := &Item{
		ID:         n.ID,
		Collection: n.Collection,
		SourceURL:  n.SourceURL,
		Title:      n.Title,
		Geometry:   n.Geometry,
		Start:      n.Temporal.Start,
		End:        n.Temporal.End,
		Properties: n.Properties,
		Bands:      n.Bands,
	}
	if n.BBox != nil {
		it.BBox = *n.BBox
	} else {
		it.BBox = n.Geometry.Bounds()
	}
	if it.Geometry.IsEmpty() {
		it.Geometry = geo.MultiPolygon{it.BBox.Polygon()}
		it.GeometryFromBBox = true
	}
	if it.Properties == nil {
		it.Properties = map[string]any{}
	}
	return it, nil
}

// Key identifies an item within a catalog.
func (it *Item) Key() string { return it.Collection + "/" + it.ID }

// IsInstant reports whether the item was captured at a single instant.
func (it *Item) IsInstant() bool { return !it.Start.IsZero() && it.Start.Equal(it.End) }

// Midpoint is the centre of the acquisition range. Open ranges use their
// closed end.
func (it *Item) Midpoint() time.Time {
	switch {
	case it.Start.IsZero():
		return it.End
	case it.End.IsZero():
		return it.Start
	default:
		return it.Start.Add(it.End.Sub(it.Start) / 2)
	}
}

// Overlaps reports whether the acquisition shares any instant with w.
func (it *Item) Overlaps(w Window) bool {
	if !w.End.IsZero() && !it.Start.IsZero() && it.Start.After(w.End) {
		return false
	}
	if !w.Start.IsZero() && !it.End.IsZero() && it.End.Before(w.Start) {
		return false
	}
	return true
}

// Within reports whether the whole acquisition lies inside w.
func (it *Item) Within(w Window) bool {
	if !w.Start.IsZero() && (it.Start.IsZero() || it.Start.Before(w.Start)) {
		return false
	}
	if !w.End.IsZero() && (it.End.IsZero() || it.End.After(w.End)) {
		return false
	}
	return true
}

// Distance is how far the acquisition is from t; zero when t falls inside
// it.
func (it *Item) Distance(t time.Time) time.Duration {
	if !it.Start.IsZero() && t.Before(it.Start) {
		return it.Start.Sub(t)
	}
	if !it.End.IsZero() && t.After(it.End) {
		return t.Sub(it.End)
	}
	return 0
}

// Number returns a numeric property.
func (it *Item) Number(key string) (float64, bool) {
	switch v := it.Properties[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Text returns a string property.
func (it *Item) Text(key string) string {
	s, _ := it.Properties[key].(string)
	return s
}

func (it *Item) CloudCover() (float64, bool) { return it.Number("eo:cloud_cover") }
func (it *Item) GSD() (float64, bool)        { return it.Number("gsd") }
func (it *Item) Platform() string            { return it.Text("platform") }

// Instruments reads the STAC instruments list, falling back to the older
// single-valued eo:instrument.
func (it *Item) Instruments() string {
	if s := it.Text("instruments"); s != "" {
		return s
	}
	return it.Text("eo:instrument")
}

// ProcessingLevel reads the processing extension, falling back to the
// provider-prefixed fields some catalogs use.
func (it *Item) ProcessingLevel() string {
	for _, k := range []string{"processing:level", "wyvern:processing_level", "processing_level"} {
		if s := it.Text(k); s != "" {
			return s
		}
	}
	return ""
}
