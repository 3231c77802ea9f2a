package stac

import "fmt"

// Codes classify malformed nodes for skip counters.
const (
	CodeNotJSON     = "not_json"
	CodeMissingType = "missing_type"
	CodeUnknownType = "unknown_type"
	CodeDecode      = "decode"
	CodeNoID        = "no_id"
	CodeNoFootprint = "no_footprint"
	CodeNoTemporal  = "no_temporal"
	CodeBadGeometry = "bad_geometry"
	CodeBadBBox     = "bad_bbox"
	CodeBadTemporal = "bad_temporal"
)

// MalformedNodeError reports a document that cannot be used as a catalog
// node: an unknown type, or an Item without a footprint or time.
type MalformedNodeError struct {
	URL    string
	ID     string
	Code   string
	Reason string
	Err    error
}

func (e *MalformedNodeError) Error() string {
	msg := fmt.Sprintf("stac: malformed node %s", e.URL)
	if e.ID != "" {
		msg += fmt.Sprintf(" (id %q)", e.ID)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedNodeError) Unwrap() error { return e.Err }
