package stac

import (
	"fmt"
	"strings"
	"time"
)

// Temporal is an acquisition instant or range. A zero Start or End is
// open on that side. An instant has Start equal to End.
type Temporal struct {
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// Instant returns a zero-width range at t.
func Instant(t time.Time) Temporal {
	t = t.UTC()
	return Temporal{Start: t, End: t}
}

// IsInstant reports whether the range has zero width.
func (t Temporal) IsInstant() bool {
	return !t.Start.IsZero() && t.Start.Equal(t.End)
}

// OpenStart reports whether the range has no lower bound.
func (t Temporal) OpenStart() bool { return t.Start.IsZero() }

// OpenEnd reports whether the range has no upper bound.
func (t Temporal) OpenEnd() bool { return t.End.IsZero() }

func (t Temporal) String() string {
	f := func(v time.Time) string {
		if v.IsZero() {
			return ".."
		}
		return v.Format(time.RFC3339)
	}
	if t.IsInstant() {
		return f(t.Start)
	}
	return f(t.Start) + "/" + f(t.End)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps, timestamps without a zone, and
// bare dates. Values without a zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// itemTemporal reads "datetime", falling back to "start_datetime" and
// "end_datetime" when datetime is null or absent.
func itemTemporal(props map[string]any) (*Temporal, error) {
	if s, ok := props["datetime"].(string); ok && s != "" {
		t, err := ParseTime(s)
		if err != nil {
			return nil, fmt.Errorf("datetime: %w", err)
		}
		tr := Instant(t)
		return &tr, nil
	}
	start, sok := props["start_datetime"].(string)
	end, eok := props["end_datetime"].(string)
	if !sok && !eok {
		return nil, nil
	}
	var tr Temporal
	if sok && start != "" {
		t, err := ParseTime(start)
		if err != nil {
			return nil, fmt.Errorf("start_datetime: %w", err)
		}
		tr.Start = t
	}
	if eok && end != "" {
		t, err := ParseTime(end)
		if err != nil {
			return nil, fmt.Errorf("end_datetime: %w", err)
		}
		tr.End = t
	}
	if tr.Start.IsZero() && tr.End.IsZero() {
		return nil, nil
	}
	if !tr.Start.IsZero() && !tr.End.IsZero() && tr.End.Before(tr.Start) {
		return nil, fmt.Errorf("end_datetime %s precedes start_datetime %s", end, start)
	}
	return &tr, nil
}

// intervalTemporal reads a collection extent interval, where null marks an
// open end.
func intervalTemporal(interval []any) (*Temporal, error) {
	if len(interval) != 2 {
		return nil, fmt.Errorf("temporal interval must have 2 values, got %d", len(interval))
	}
	var tr Temporal
	for i, v := range interval {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("temporal interval value %v is not a string", v)
		}
		t, err := ParseTime(s)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			tr.Start = t
		} else {
			tr.End = t
		}
	}
	return &tr, nil
}
