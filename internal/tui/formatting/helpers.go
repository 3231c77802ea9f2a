// Package formatting renders catalog items as tview-tagged text.
package formatting

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rivo/tview"
)

func writeField(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if !strings.Contains(value, "\n") {
		fmt.Fprintf(b, "[yellow]%s: [white]%s\n", label, tview.Escape(value))
		return
	}
	fmt.Fprintf(b, "[yellow]%s:[white]\n", label)
	writeIndentedLines(b, tview.Escape(value), "  ")
}

func writeIndentedLines(b *strings.Builder, text, indent string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for line := range strings.SplitSeq(text, "\n") {
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// FormatNumber prints v with at most prec decimals and no trailing zeros.
func FormatNumber(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = FormatNumber(v, 6)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatPercent renders a 0..1 ratio as a percentage.
func FormatPercent(ratio float64) string {
	return FormatNumber(ratio*100, 2) + "%"
}

// FormatArea renders square metres in km² once the area is large enough
// for metres to be unreadable.
func FormatArea(m2 float64) string {
	if m2 >= 1e5 {
		return FormatNumber(m2/1e6, 3) + " km²"
	}
	return FormatNumber(m2, 1) + " m²"
}

func MakeHelpText(text string) *tview.TextView {
	view := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignCenter).
		SetText(text)
	view.SetBorder(true).SetTitle("Controls")
	return view
}

// Slugify lowercases input and keeps letters, digits, dashes and
// underscores; whitespace becomes a dash.
func Slugify(input string) string {
	var b strings.Builder
	for _, r := range input {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '/', r == ':':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-_")
}

// JSONFilename names a saved JSON snapshot after its title and the time it
// was taken.
func JSONFilename(title string, at time.Time) string {
	slug := Slugify(title)
	if slug == "" {
		slug = "stac_item"
	}
	return fmt.Sprintf("%s_%s.json", slug, at.Format("20060102_150405"))
}
