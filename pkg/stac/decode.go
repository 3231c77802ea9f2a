package stac

import (
	"encoding/json"
	"strings"

	gostac "github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/stac-coverage/pkg/geo"
)

type envelope struct {
	Type string `json:"type"`
}

// Decode classifies body by its declared type and converts it into a
// Node. Every failure is a *MalformedNodeError carrying sourceURL.
func Decode(sourceURL string, body []byte) (*Node, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &MalformedNodeError{URL: sourceURL, Code: CodeNotJSON, Reason: "document is not a JSON object", Err: err}
	}
	var (
		node *Node
		err  error
	)
	switch strings.TrimSpace(env.Type) {
	case "Catalog":
		node, err = decodeCatalog(sourceURL, body)
	case "Collection":
		node, err = decodeCollection(sourceURL, body)
	case "Feature":
		node, err = decodeItem(sourceURL, body)
	case "":
		return nil, &MalformedNodeError{URL: sourceURL, Code: CodeMissingType, Reason: "missing type"}
	default:
		return nil, &MalformedNodeError{URL: sourceURL, Code: CodeUnknownType, Reason: "unknown type " + env.Type}
	}
	if err != nil {
		return nil, err
	}
	if err := node.Validate(); err != nil {
		return nil, err
	}
	return node, nil
}

func decodeCatalog(sourceURL string, body []byte) (*Node, error) {
	var cat gostac.Catalog
	if err := json.Unmarshal(body, &cat); err != nil {
		return nil, &MalformedNodeError{URL: sourceURL, Code: CodeDecode, Reason: "decode catalog", Err: err}
	}
	n := &Node{ID: cat.Id, Type: TypeCatalog, SourceURL: sourceURL, Title: cat.Title}
	n.Links, n.DroppedLinks = resolveLinks(sourceURL, cat.Links)
	return n, nil
}

func decodeCollection(sourceURL string, body []byte) (*Node, error) {
	var col gostac.Collection
	if err := json.Unmarshal(body, &col); err != nil {
		return nil, &MalformedNodeError{URL: sourceURL, Code: CodeDecode, Reason: "decode collection", Err: err}
	}
	n := &Node{ID: col.Id, Type: TypeCollection, SourceURL: sourceURL, Title: col.Title}
	n.Links, n.DroppedLinks = resolveLinks(sourceURL, col.Links)
	if col.Extent != nil {
		if col.Extent.Spatial != nil && len(col.Extent.Spatial.Bbox) > 0 {
			if b, err := geo.NewBBox(col.Extent.Spatial.Bbox[0]); err == nil {
				n.BBox = &b
			}
		}
		if col.Extent.Temporal != nil && len(col.Extent.Temporal.Interval) > 0 {
			if tr, err := intervalTemporal(col.Extent.Temporal.Interval[0]); err == nil {
				n.Temporal = tr
			}
		}
	}
	return n, nil
}

func decodeItem(sourceURL string, body []byte) (*Node, error) {
	var item gostac.Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, &MalformedNodeError{URL: sourceURL, Code: CodeDecode, Reason: "decode item", Err: err}
	}
	n := &Node{
		ID:         item.Id,
		Type:       TypeItem,
		SourceURL:  sourceURL,
		Collection: item.Collection,
		Properties: scalarProperties(item.Properties),
		Bands:      decodeBands(body),
	}
	if t, ok := item.Properties["title"].(string); ok {
		n.Title = t
	}
	n.Links, n.DroppedLinks = resolveLinks(sourceURL, item.Links)

	if len(item.Bbox) > 0 {
		b, err := geo.NewBBox(item.Bbox)
		if err != nil {
			return nil, &MalformedNodeError{URL: sourceURL, ID: item.Id, Code: CodeBadBBox, Reason: "bbox", Err: err}
		}
		n.BBox = &b
	}
	if item.Geometry != nil {
		mp, err := geo.FromGeoJSONValue(item.Geometry)
		switch {
		case err == nil:
			n.Geometry = mp
		case n.BBox == nil:
			return nil, &MalformedNodeError{URL: sourceURL, ID: item.Id, Code: CodeBadGeometry, Reason: "geometry", Err: err}
		}
		// An unusable geometry with a bbox present falls back to the bbox.
	}
	if n.BBox == nil && !n.Geometry.IsEmpty() {
		b := n.Geometry.Bounds()
		n.BBox = &b
	}

	tr, err := itemTemporal(item.Properties)
	if err != nil {
		return nil, &MalformedNodeError{URL: sourceURL, ID: item.Id, Code: CodeBadTemporal, Reason: "temporal", Err: err}
	}
	n.Temporal = tr
	return n, nil
}

func resolveLinks(base string, links []*gostac.Link) ([]Link, int) {
	out := make([]Link, 0, len(links))
	dropped := 0
	for _, l := range links {
		if l == nil || strings.TrimSpace(l.Href) == "" {
			dropped++
			continue
		}
		u, err := Resolve(base, l.Href)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, Link{URL: u, Rel: ParseRelation(l.Rel), MediaType: l.Type})
	}
	return out, dropped
}

// scalarProperties keeps scalar values. Arrays of strings, such as
// "instruments", are joined with commas; other nested values are dropped.
func scalarProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		switch tv := v.(type) {
		case string, float64, bool, json.Number:
			out[k] = v
		case []any:
			if s, ok := joinStrings(tv); ok {
				out[k] = s
			}
		}
	}
	return out
}

func joinStrings(vs []any) (string, bool) {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		s, ok := v.(string)
		if !ok {
			return "", false
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ","), len(parts) > 0
}
