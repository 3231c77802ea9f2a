package stac

import (
	"github.com/robert-malhotra/stac-coverage/pkg/geo"
)

// Relation is the "rel" of a link, reduced to the values traversal cares
// about.
type Relation string

const (
	RelChild  Relation = "child"
	RelItem   Relation = "item"
	RelSelf   Relation = "self"
	RelRoot   Relation = "root"
	RelParent Relation = "parent"
	RelOther  Relation = "other"
)

// ParseRelation maps a raw rel value onto a Relation.
func ParseRelation(rel string) Relation {
	switch r := Relation(rel); r {
	case RelChild, RelItem, RelSelf, RelRoot, RelParent:
		return r
	default:
		return RelOther
	}
}

// Link is a resolved, absolute link.
type Link struct {
	URL       string   `json:"url"`
	Rel       Relation `json:"rel"`
	MediaType string   `json:"media_type,omitempty"`
}

// NodeType is the declared kind of a document.
type NodeType string

const (
	TypeCatalog    NodeType = "Catalog"
	TypeCollection NodeType = "Collection"
	TypeItem       NodeType = "Item"
)

// Node is one decoded catalog document.
type Node struct {
	ID        string
	Type      NodeType
	SourceURL string
	Title     string
	Links     []Link

	// Geometry and BBox are set for items and, for collections, BBox holds
	// the first spatial extent.
	Geometry geo.MultiPolygon
	BBox     *geo.BBox
	Temporal *Temporal

	// Properties holds the scalar properties of an item.
	Properties map[string]any
	Collection string
	Bands      []Band

	// DroppedLinks counts links whose href could not be resolved.
	DroppedLinks int
}

// LinksOf returns the links with one of the given relations, in document
// order.
func (n *Node) LinksOf(rels ...Relation) []Link {
	var out []Link
	for _, l := range n.Links {
		for _, r := range rels {
			if l.Rel == r {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// Validate checks the invariants of the node type. Items need a footprint
// and a time.
func (n *Node) Validate() error {
	if n.Type != TypeItem {
		return nil
	}
	if n.Geometry.IsEmpty() && n.BBox == nil {
		return &MalformedNodeError{URL: n.SourceURL, ID: n.ID, Code: CodeNoFootprint, Reason: "item has neither geometry nor bbox"}
	}
	if n.Temporal == nil {
		return &MalformedNodeError{URL: n.SourceURL, ID: n.ID, Code: CodeNoTemporal, Reason: "item has no datetime or start/end datetime"}
	}
	if n.ID == "" {
		return &MalformedNodeError{URL: n.SourceURL, Code: CodeNoID, Reason: "item has no id"}
	}
	return nil
}
