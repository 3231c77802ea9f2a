package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/query"
	"github.com/robert-malhotra/stac-coverage/pkg/stac"
	"github.com/robert-malhotra/stac-coverage/pkg/traverse"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", formatTable:
		return formatTable, nil
	case formatJSON:
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeJSONArray streams seq as a JSON array with one element per line, so
// the first items of a long walk reach the terminal before the walk ends.
// It returns the number of elements written.
func writeJSONArray[T any](w io.Writer, seq iter.Seq2[T, error], marshal func(T) ([]byte, error)) (int, error) {
	return writeJSONArrayPaged(w, nil, nil, 0, seq, marshal)
}

// writeJSONArrayPaged is writeJSONArray with a pause every pageSize
// elements. The prompt goes to prompt and the answer is read from in; "q"
// stops the sequence early and still closes the array. An error from seq
// leaves the array unterminated.
func writeJSONArrayPaged[T any](w, prompt io.Writer, in io.Reader, pageSize int, seq iter.Seq2[T, error], marshal func(T) ([]byte, error)) (int, error) {
	if _, err := fmt.Fprintln(w, "["); err != nil {
		return 0, err
	}

	var (
		reader  *bufio.Reader
		written int
		iterErr error
	)
	if in != nil && pageSize > 0 {
		reader = bufio.NewReader(in)
	}

	for value, err := range seq {
		if err != nil {
			iterErr = err
			break
		}
		data, err := marshal(value)
		if err != nil {
			iterErr = err
			break
		}
		if written > 0 {
			if _, err := fmt.Fprintln(w, ","); err != nil {
				return written, err
			}
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return written, err
		}
		written++

		if reader == nil || written%pageSize != 0 {
			continue
		}
		if prompt != nil {
			fmt.Fprint(prompt, "Press Enter to continue, or type 'q' to quit: ")
		}
		input, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				iterErr = err
				break
			}
			// Closed input stops prompting but keeps printing.
			reader = nil
		}
		if strings.EqualFold(strings.TrimSpace(input), "q") {
			break
		}
	}

	// A failed sequence leaves the array open so the output cannot pass for
	// a complete result.
	if iterErr != nil {
		return written, iterErr
	}
	if _, err := fmt.Fprintln(w, "]"); err != nil {
		return written, err
	}
	return written, nil
}

func writeItemTable(w io.Writer, items []*index.Item) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOLLECTION\tDATETIME\tCLOUD\tGSD\tPLATFORM\tBANDS")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, orDash(it.Collection), formatAcquisition(it),
			formatOptional(it.CloudCover()), formatOptional(it.GSD()), orDash(it.Platform()),
			formatBands(it.Bands))
	}
	return tw.Flush()
}

func writeCoverageTable(w io.Writer, r *query.CoverageResult) error {
	fmt.Fprintf(w, "coverage: %.2f%% of %.3f km² (%d items)\n", r.Ratio*100, r.AreaM2/1e6, len(r.Matches))
	if len(r.Matches) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCOLLECTION\tDATETIME\tCOVERAGE\tCLOUD")
		for _, m := range r.Matches {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\t%s\n",
				m.Item.ID, orDash(m.Item.Collection), formatAcquisition(m.Item),
				m.Ratio*100, formatOptional(m.Item.CloudCover()))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if r.Cells != nil {
		fmt.Fprintf(w, "h3 resolution %d: %d covered, %d uncovered\n",
			r.Cells.Resolution, len(r.Cells.Covered), len(r.Cells.Uncovered))
	}
	return nil
}

func writeSummaryTable(w io.Writer, root string, sum traverse.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "root\t%s\n", root)
	fmt.Fprintf(tw, "visited\t%d\n", sum.Visited)
	fmt.Fprintf(tw, "items\t%d\n", sum.Items)
	fmt.Fprintf(tw, "depth\t%d\n", sum.Depth)
	fmt.Fprintf(tw, "skipped\t%d\n", sum.Skipped)
	for _, reason := range sortedKeys(sum.SkippedByReason) {
		fmt.Fprintf(tw, "  %s\t%d\n", reason, sum.SkippedByReason[reason])
	}
	for _, f := range sum.FetchFailures {
		status := ""
		if f.Status != 0 {
			status = " " + strconv.Itoa(f.Status)
		}
		fmt.Fprintf(tw, "fetch failed\t%s (%s%s)\n", f.URL, f.Kind, status)
	}
	return tw.Flush()
}

func formatAcquisition(it *index.Item) string {
	switch {
	case it.IsInstant():
		return it.Start.UTC().Format(time.RFC3339)
	case it.Start.IsZero() && it.End.IsZero():
		return "-"
	default:
		return formatBound(it.Start) + "/" + formatBound(it.End)
	}
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ".."
	}
	return t.UTC().Format(time.RFC3339)
}

func formatOptional(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// formatBands lists band labels, e.g. "blue,green,red".
func formatBands(bands []stac.Band) string {
	labels := make([]string, 0, len(bands))
	for _, b := range bands {
		if l := b.Label(); l != "" {
			labels = append(labels, l)
		}
	}
	return orDash(strings.Join(labels, ","))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
