package query

import (
	"time"

	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/stac"
)

// ItemView is the JSON shape of an item in query responses. The
// commonly inspected STAC properties are lifted to the top level.
type ItemView struct {
	ID               string         `json:"id"`
	Collection       string         `json:"collection,omitempty"`
	Title            string         `json:"title,omitempty"`
	SourceURL        string         `json:"href"`
	Datetime         *time.Time     `json:"datetime,omitempty"`
	Start            *time.Time     `json:"start_datetime,omitempty"`
	End              *time.Time     `json:"end_datetime,omitempty"`
	CloudCover       *float64       `json:"eo:cloud_cover,omitempty"`
	GSD              *float64       `json:"gsd,omitempty"`
	Platform         string         `json:"platform,omitempty"`
	Instruments      string         `json:"instruments,omitempty"`
	ProcessingLevel  string         `json:"processing:level,omitempty"`
	Bands            []stac.Band    `json:"bands,omitempty"`
	BBox             []float64      `json:"bbox"`
	Geometry         map[string]any `json:"geometry,omitempty"`
	GeometryFromBBox bool           `json:"geometry_from_bbox,omitempty"`
	Properties       map[string]any `json:"properties,omitempty"`
}

// ViewOption trims an ItemView.
type ViewOption func(*ItemView)

// WithoutGeometry drops the footprint.
func WithoutGeometry() ViewOption {
	return func(v *ItemView) { v.Geometry = nil }
}

// WithoutProperties drops the raw property map.
func WithoutProperties() ViewOption {
	return func(v *ItemView) { v.Properties = nil }
}

// NewItemView renders it.
func NewItemView(it *index.Item, opts ...ViewOption) ItemView {
	v := ItemView{
		ID:               it.ID,
		Collection:       it.Collection,
		Title:            it.Title,
		SourceURL:        it.SourceURL,
		Platform:         it.Platform(),
		Instruments:      it.Instruments(),
		ProcessingLevel:  it.ProcessingLevel(),
		Bands:            it.Bands,
		BBox:             it.BBox.Slice(),
		Geometry:         it.Geometry.GeoJSON(),
		GeometryFromBBox: it.GeometryFromBBox,
		Properties:       it.Properties,
	}
	if it.IsInstant() {
		t := it.Start
		v.Datetime = &t
	} else {
		if !it.Start.IsZero() {
			t := it.Start
			v.Start = &t
		}
		if !it.End.IsZero() {
			t := it.End
			v.End = &t
		}
	}
	if cc, ok := it.CloudCover(); ok {
		v.CloudCover = &cc
	}
	if g, ok := it.GSD(); ok {
		v.GSD = &g
	}
	for _, o := range opts {
		o(&v)
	}
	return v
}

// NewItemViews renders items in order.
func NewItemViews(items []*index.Item, opts ...ViewOption) []ItemView {
	out := make([]ItemView, len(items))
	for i, it := range items {
		out[i] = NewItemView(it, opts...)
	}
	return out
}

// MatchView is a coverage match with its item rendered.
type MatchView struct {
	ItemView
	Ratio  float64 `json:"coverage_ratio"`
	AreaM2 float64 `json:"area_m2"`
}

// CoverageView is the JSON shape of a CoverageResult.
type CoverageView struct {
	Ratio   float64      `json:"coverage_ratio"`
	AreaM2  float64      `json:"area_m2"`
	Covered float64      `json:"covered_m2"`
	Window  index.Window `json:"window"`
	Matches []MatchView  `json:"matched_items"`
	Cells   *CellReport  `json:"cells,omitempty"`
}

// View renders r.
func (r *CoverageResult) View(opts ...ViewOption) CoverageView {
	v := CoverageView{
		Ratio:   r.Ratio,
		AreaM2:  r.AreaM2,
		Covered: r.Covered,
		Window:  r.Window,
		Matches: make([]MatchView, len(r.Matches)),
		Cells:   r.Cells,
	}
	for i, m := range r.Matches {
		v.Matches[i] = MatchView{ItemView: NewItemView(m.Item, opts...), Ratio: m.Ratio, AreaM2: m.AreaM2}
	}
	return v
}
