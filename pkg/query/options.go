package query

import (
	"time"

	"github.com/robert-malhotra/stac-coverage/pkg/cql2"
	"github.com/robert-malhotra/stac-coverage/pkg/fetch"
	"github.com/robert-malhotra/stac-coverage/pkg/index"
)

// Option configures an Engine.
type Option func(*Engine)

// WithTTL sets how long a published index stays fresh for EnsureFresh.
func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.ttl = ttl }
}

// WithIndexOptions passes options to every index build.
func WithIndexOptions(opts ...index.Option) Option {
	return func(e *Engine) { e.indexOpts = append(e.indexOpts, opts...) }
}

func WithLogger(l fetch.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now for refresh timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

type queryConfig struct {
	where    *cql2.Filter
	cellRes  int
	cells    bool
	maxCells int
}

// QueryOption adjusts a single query.
type QueryOption func(*queryConfig)

// Where keeps only items whose properties match f.
func Where(f *cql2.Filter) QueryOption {
	return func(c *queryConfig) { c.where = f }
}

// WithCells adds an H3 report of covered and uncovered cells at res to a
// coverage result. The resolution is lowered if the area would need more
// than geo.MaxCells cells.
func WithCells(res int) QueryOption {
	return func(c *queryConfig) {
		c.cells = true
		c.cellRes = res
	}
}

func buildQueryConfig(opts []QueryOption) queryConfig {
	var c queryConfig
	for _, o := range opts {
		o(&c)
	}
	return c
}

func (c queryConfig) predicate() index.Predicate {
	if c.where == nil {
		return nil
	}
	return func(it *index.Item) bool { return c.where.Match(it.Properties) }
}

// Select applies the property filter of opts to items, preserving order.
func Select(items []*index.Item, opts ...QueryOption) []*index.Item {
	return index.Filter(items, buildQueryConfig(opts).predicate())
}
