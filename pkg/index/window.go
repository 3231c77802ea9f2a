package index

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is returned for a window whose start is after its end.
var ErrInvalidWindow = errors.New("invalid time window")

// Window is an inclusive time range. A zero bound is open.
type Window struct {
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// Validate rejects reversed windows.
func (w Window) Validate() error {
	if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// DayWindow covers the UTC calendar day of t widened by tol days on each
// side.
func DayWindow(t time.Time, tolDays int) Window {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Window{
		Start: day.AddDate(0, 0, -tolDays),
		End:   day.AddDate(0, 0, tolDays+1).Add(-time.Nanosecond),
	}
}

// Predicate filters items.
type Predicate func(*Item) bool

// And combines predicates; a nil predicate matches everything.
func And(ps ...Predicate) Predicate {
	return func(it *Item) bool {
		for _, p := range ps {
			if p != nil && !p(it) {
				return false
			}
		}
		return true
	}
}
