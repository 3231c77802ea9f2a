package formatting

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/stac-coverage/pkg/geo"
)

// maxRingPoints bounds how many vertices of a ring are printed before the
// rest is elided.
const maxRingPoints = 12

// FormatGeometry describes a footprint: its shape, bounds and the leading
// vertices of every ring.
func FormatGeometry(mp geo.MultiPolygon) string {
	if mp.IsEmpty() {
		return ""
	}

	var b strings.Builder
	vertices := 0
	for _, poly := range mp {
		for _, ring := range poly {
			vertices += len(ring)
		}
	}
	kind := "Polygon"
	if len(mp) > 1 {
		kind = fmt.Sprintf("MultiPolygon (%d parts)", len(mp))
	}
	fmt.Fprintf(&b, "%s, %d vertices\n", kind, vertices)
	fmt.Fprintf(&b, "bbox %s\n", formatFloats(mp.Bounds().Slice()))

	for i, poly := range mp {
		for j, ring := range poly {
			label := "outer"
			if j > 0 {
				label = fmt.Sprintf("hole %d", j)
			}
			if len(mp) > 1 {
				label = fmt.Sprintf("part %d %s", i+1, label)
			}
			b.WriteString(label + ":\n")
			writeIndentedLines(&b, wrapPoints(formatRing(ring), 70), "  ")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRing(ring geo.Ring) []string {
	n := min(len(ring), maxRingPoints)
	out := make([]string, 0, n+1)
	for _, p := range ring[:n] {
		out = append(out, "("+FormatNumber(p.Lon, 5)+" "+FormatNumber(p.Lat, 5)+")")
	}
	if rest := len(ring) - n; rest > 0 {
		out = append(out, fmt.Sprintf("… %d more", rest))
	}
	return out
}

// wrapPoints joins points with spaces, breaking lines before width.
func wrapPoints(points []string, width int) string {
	var (
		b       strings.Builder
		lineLen int
	)
	for _, p := range points {
		if lineLen > 0 && lineLen+1+len(p) > width {
			b.WriteByte('\n')
			lineLen = 0
		}
		if lineLen > 0 {
			b.WriteByte(' ')
			lineLen++
		}
		b.WriteString(p)
		lineLen += len(p)
	}
	return b.String()
}
