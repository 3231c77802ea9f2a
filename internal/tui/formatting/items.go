package formatting

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/stac"
)

// FormatAcquisition renders an item's acquisition time or interval.
func FormatAcquisition(it *index.Item) string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return ".."
		}
		return t.UTC().Format(time.RFC3339)
	}
	if it.IsInstant() {
		return bound(it.Start)
	}
	if it.Start.IsZero() && it.End.IsZero() {
		return ""
	}
	return bound(it.Start) + " / " + bound(it.End)
}

// FormatItemSummary is the side panel shown while an item is selected in
// the result list. coverage, when non-nil, is the share of the query area
// the item covers.
func FormatItemSummary(it *index.Item, coverage *float64) string {
	var b strings.Builder
	writeField(&b, "ID", it.ID)
	writeField(&b, "Collection", it.Collection)
	writeField(&b, "Title", it.Title)
	writeField(&b, "Acquired", FormatAcquisition(it))
	if coverage != nil {
		writeField(&b, "Coverage", FormatPercent(*coverage))
	}
	if cc, ok := it.CloudCover(); ok {
		writeField(&b, "Cloud cover", FormatNumber(cc, 2)+"%")
	}
	if gsd, ok := it.GSD(); ok {
		writeField(&b, "GSD", FormatNumber(gsd, 2)+" m")
	}
	writeField(&b, "Platform", it.Platform())
	writeField(&b, "Instruments", it.Instruments())
	writeField(&b, "Processing level", it.ProcessingLevel())
	writeField(&b, "Bands", BandLabels(it.Bands))

	geom := FormatGeometry(it.Geometry)
	if it.GeometryFromBBox && geom != "" {
		geom = "from bbox, " + geom
	}
	writeField(&b, "Footprint", geom)
	return b.String()
}

// FormatItemDetail lists where an item came from ahead of its raw
// properties.
func FormatItemDetail(it *index.Item) string {
	var b strings.Builder
	writeField(&b, "Key", it.Key())
	writeField(&b, "Source", it.SourceURL)
	writeField(&b, "Acquired", FormatAcquisition(it))
	writeField(&b, "BBox", formatFloats(it.BBox.Slice()))
	writeField(&b, "Spectral bands", FormatBands(it.Bands))
	if len(it.Properties) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatProperties(it.Properties, 0))
	}
	return b.String()
}

// BandLabels joins the band labels, e.g. "blue, green, red".
func BandLabels(bands []stac.Band) string {
	labels := make([]string, 0, len(bands))
	for _, bd := range bands {
		if l := bd.Label(); l != "" {
			labels = append(labels, l)
		}
	}
	return strings.Join(labels, ", ")
}

// FormatBands prints one band per line: name, common name, centre
// wavelength in micrometres and the asset carrying it.
func FormatBands(bands []stac.Band) string {
	var b strings.Builder
	for _, bd := range bands {
		wl := "-"
		if bd.CenterWavelength != nil {
			wl = FormatNumber(*bd.CenterWavelength, 3) + " µm"
		}
		fmt.Fprintf(&b, "%-8s %-10s %-10s %s\n", orNA(bd.Name), orNA(bd.CommonName), wl, bd.Asset)
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// FormatProperties prints one key per line in key order. Nested objects
// are expanded with deeper indentation; other values print as JSON.
func FormatProperties(props map[string]any, indent int) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pad := strings.Repeat("  ", indent)
	var b strings.Builder
	for _, k := range keys {
		label := tview.Escape(pad + k + ":")
		if nested, ok := props[k].(map[string]any); ok && len(nested) > 0 {
			fmt.Fprintf(&b, "[yellow]%s[white]\n", label)
			b.WriteString(FormatProperties(nested, indent+1))
			continue
		}
		data, err := json.Marshal(props[k])
		value := string(data)
		if err != nil {
			value = fmt.Sprintf("%v", props[k])
		}
		fmt.Fprintf(&b, "[yellow]%-30s[white] %s\n", label, tview.Escape(value))
	}
	return b.String()
}

// ListLabel is the one-line entry for an item in the result list.
func ListLabel(it *index.Item, coverage *float64) string {
	label := it.ID
	if it.Collection != "" {
		label = it.Collection + "/" + it.ID
	}
	if coverage != nil {
		label += "  " + FormatPercent(*coverage)
	}
	return label
}
