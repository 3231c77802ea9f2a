package query

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/robert-malhotra/stac-coverage/internal/metrics"
	"github.com/robert-malhotra/stac-coverage/pkg/geo"
	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/stac"
)

// GetMetadata returns the items whose footprint contains (lon, lat) and
// whose acquisition lies entirely within the UTC days from date-tol to
// date+tol, bounds included. Results are ordered by temporal distance to
// date, then by id.
func (e *Engine) GetMetadata(ctx context.Context, lon, lat float64, date time.Time, toleranceDays int, opts ...QueryOption) ([]*index.Item, error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("metadata", time.Since(start).Seconds()) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := e.index()
	if err != nil {
		return nil, err
	}
	p, err := point(lon, lat)
	if err != nil {
		return nil, err
	}
	if toleranceDays < 0 {
		return nil, fmt.Errorf("%w: negative tolerance %d", ErrInvalidWindow, toleranceDays)
	}
	w := index.DayWindow(date, toleranceDays)
	cfg := buildQueryConfig(opts)

	within := func(it *index.Item) bool { return it.Within(w) }
	items := index.Filter(idx.QueryPoint(p), index.And(within, cfg.predicate()))
	slices.SortStableFunc(items, func(a, b *index.Item) int {
		da, db := a.Distance(date), b.Distance(date)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		if c := strings.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return strings.Compare(a.Collection, b.Collection)
	})
	return items, nil
}

func point(lon, lat float64) (geo.Point, error) {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return geo.Point{}, &geo.InvalidGeometryError{Reason: "non-finite coordinate"}
	}
	if lat < -90 || lat > 90 {
		return geo.Point{}, &geo.InvalidGeometryError{Reason: fmt.Sprintf("latitude %g out of range", lat)}
	}
	return geo.Point{Lon: geo.NormalizeLon(lon), Lat: lat}, nil
}

// Metadata is the string-argument form of GetMetadata used by the CLI and
// the HTTP API. Note the latitude-first argument order.
func (e *Engine) Metadata(ctx context.Context, lat, lon float64, date string, toleranceDays int, opts ...QueryOption) ([]*index.Item, error) {
	t, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	return e.GetMetadata(ctx, lon, lat, t, toleranceDays, opts...)
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	t, err := stac.ParseTime(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return t, nil
}
