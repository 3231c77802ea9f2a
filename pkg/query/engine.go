// Package query answers metadata and coverage questions against the
// current catalog index.
//
// An Engine owns the published index. Refresh walks the catalog, builds a
// new index and swaps it in atomically; queries in flight keep using the
// index they started with, and a failed refresh leaves the previous index
// in place.
package query

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robert-malhotra/stac-coverage/internal/logger"
	"github.com/robert-malhotra/stac-coverage/internal/metrics"
	"github.com/robert-malhotra/stac-coverage/pkg/fetch"
	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/traverse"
)

// Collector walks a catalog to completion. *traverse.Walker implements it.
type Collector interface {
	Collect(ctx context.Context, root string) (*traverse.Result, error)
}

type snapshot struct {
	idx         *index.Index
	summary     traverse.Summary
	refreshedAt time.Time
}

// Engine is safe for concurrent use.
type Engine struct {
	collector Collector
	root      string
	ttl       time.Duration
	indexOpts []index.Option
	logger    fetch.Logger
	now       func() time.Time

	mu         sync.Mutex // serializes refreshes
	generation uint64
	current    atomic.Pointer[snapshot]
}

// New returns an engine for the catalog at root. It holds no index until
// the first Refresh.
func New(c Collector, root string, opts ...Option) *Engine {
	e := &Engine{
		collector: c,
		root:      root,
		ttl:       time.Hour,
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Root is the catalog URL the engine walks.
func (e *Engine) Root() string { return e.root }

// Current returns the published index, or nil before the first refresh.
func (e *Engine) Current() *index.Index {
	if s := e.current.Load(); s != nil {
		return s.idx
	}
	return nil
}

// Summary returns the traversal summary of the published index.
func (e *Engine) Summary() traverse.Summary {
	if s := e.current.Load(); s != nil {
		return s.summary
	}
	return traverse.Summary{}
}

// LastRefresh is when the published index was swapped in; zero before the
// first refresh.
func (e *Engine) LastRefresh() time.Time {
	if s := e.current.Load(); s != nil {
		return s.refreshedAt
	}
	return time.Time{}
}

// Publish swaps in an index built elsewhere.
func (e *Engine) Publish(idx *index.Index, sum traverse.Summary) {
	e.current.Store(&snapshot{idx: idx, summary: sum, refreshedAt: e.now()})
}

// Refresh walks the catalog and publishes a new index. On failure the
// previous index stays published and the error is returned.
func (e *Engine) Refresh(ctx context.Context) (*index.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshLocked(ctx)
}

// EnsureFresh refreshes when there is no index or it is older than the
// TTL. Concurrent callers share one refresh. A TTL of zero or less never
// expires a published index.
func (e *Engine) EnsureFresh(ctx context.Context) (*index.Index, error) {
	if s := e.current.Load(); s != nil && !e.stale(s) {
		return s.idx, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.current.Load(); s != nil && !e.stale(s) {
		return s.idx, nil
	}
	return e.refreshLocked(ctx)
}

func (e *Engine) stale(s *snapshot) bool {
	return e.ttl > 0 && e.now().Sub(s.refreshedAt) >= e.ttl
}

func (e *Engine) refreshLocked(ctx context.Context) (*index.Index, error) {
	if logger.TraversalID(ctx) == "" {
		ctx = logger.WithTraversalID(ctx, logger.NewID())
	}
	start := time.Now()
	res, err := e.collector.Collect(ctx, e.root)
	if err != nil {
		metrics.IncRefresh(false)
		if e.logger != nil {
			e.logger.Errorf("query: refresh %s failed (traversal_id=%s): %v", e.root, logger.TraversalID(ctx), err)
		}
		return nil, err
	}
	walked := time.Since(start)

	e.generation++
	buildStart := time.Now()
	opts := append(append([]index.Option(nil), e.indexOpts...), index.WithGeneration(e.generation), index.WithBuildTime(e.now))
	idx := index.Build(res.Items, opts...)
	metrics.ObserveIndexBuild(idx.Len(), time.Since(buildStart).Seconds())

	e.Publish(idx, res.Summary)
	metrics.IncRefresh(true)
	if e.logger != nil {
		st := idx.Stats()
		e.logger.Debugf("query: refreshed %s generation=%d items=%d duplicates=%d skipped=%d walk=%s",
			e.root, e.generation, st.Items, st.Duplicates, res.Summary.Skipped, walked.Round(time.Millisecond))
	}
	return idx, nil
}

func (e *Engine) index() (*index.Index, error) {
	idx := e.Current()
	if idx == nil {
		return nil, ErrNoIndex
	}
	return idx, nil
}
