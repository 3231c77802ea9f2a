// Package traverse walks a STAC link graph breadth first and yields the
// items it reaches.
//
// Each BFS level is fetched with bounded parallelism and then processed in
// URL order, so logs and skip counters are reproducible. A URL is visited
// at most once per walk regardless of back-links. The number of distinct
// URLs is capped; exceeding the cap fails the walk.
package traverse

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/stac-coverage/internal/logger"
	"github.com/robert-malhotra/stac-coverage/internal/metrics"
	"github.com/robert-malhotra/stac-coverage/pkg/cache"
	"github.com/robert-malhotra/stac-coverage/pkg/fetch"
	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/stac"
)

const (
	DefaultMaxNodes    = 100000
	DefaultConcurrency = 8
)

// Source supplies documents by URL. *cache.Cache implements it.
type Source interface {
	GetOrFetch(ctx context.Context, url string) (cache.Entry, error)
}

// Walker is safe for concurrent use; every walk keeps its own state.
type Walker struct {
	source          Source
	maxNodes        int
	concurrency     int
	skipFetchErrors bool
	logger          fetch.Logger
	progress        ProgressFunc
}

// New returns a Walker reading through src.
func New(src Source, opts ...Option) *Walker {
	w := &Walker{
		source:      src,
		maxNodes:    DefaultMaxNodes,
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

type task struct {
	url        string
	depth      int
	collection string
}

type fetched struct {
	entry cache.Entry
	err   error
}

// Traverse returns a lazy sequence of the items reachable from root. Each
// iteration performs a fresh walk. The sequence ends after yielding an
// error.
//
// Items are yielded level by level, so an error (a CatalogTooLargeError
// found deeper in the catalog, a fetch failure, cancellation) can follow
// items already yielded. Callers that need all or nothing use Collect.
func (w *Walker) Traverse(ctx context.Context, root string) iter.Seq2[*index.Item, error] {
	return func(yield func(*index.Item, error) bool) {
		var sum Summary
		w.walk(ctx, root, &sum, yield)
	}
}

// Collect walks root to completion. It returns every item or an error,
// never a partial result.
func (w *Walker) Collect(ctx context.Context, root string) (*Result, error) {
	res := &Result{}
	var walkErr error
	w.walk(ctx, root, &res.Summary, func(it *index.Item, err error) bool {
		if err != nil {
			walkErr = err
			return false
		}
		res.Items = append(res.Items, it)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return res, nil
}

func (w *Walker) walk(ctx context.Context, root string, sum *Summary, yield func(*index.Item, error) bool) {
	sum.reset()
	rootURL, err := stac.NormalizeURL(root)
	if err != nil {
		yield(nil, &fetch.FetchError{Kind: fetch.KindNetwork, URL: root, Err: err})
		return
	}
	if w.logger != nil {
		w.logger.Debugf("traverse: start root=%s traversal_id=%s", rootURL, logger.TraversalID(ctx))
	}

	seen := map[string]struct{}{rootURL: {}}
	level := []task{{url: rootURL}}

	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		results := w.fetchLevel(ctx, level)
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}

		var (
			next  []task
			items []*index.Item
		)
		for i, t := range level {
			node, err := w.decode(t, results[i], sum)
			if err != nil {
				yield(nil, err)
				return
			}
			if node == nil {
				continue
			}
			sum.Visited++
			sum.Depth = max(sum.Depth, t.depth)
			metrics.IncTraversalNode("visited")

			switch node.Type {
			case stac.TypeItem:
				if node.Collection == "" {
					node.Collection = t.collection
				}
				it, err := index.FromNode(node)
				if err != nil {
					w.skip(t, err, sum)
					continue
				}
				sum.Items++
				metrics.IncTraversalNode("item")
				w.report(t, node, sum)
				items = append(items, it)
				continue
			case stac.TypeCollection:
				t.collection = node.ID
			}
			w.report(t, node, sum)

			for _, l := range node.LinksOf(stac.RelChild, stac.RelItem) {
				if _, ok := seen[l.URL]; ok {
					continue
				}
				seen[l.URL] = struct{}{}
				if w.maxNodes > 0 && len(seen) > w.maxNodes {
					yield(nil, &CatalogTooLargeError{Root: rootURL, Limit: w.maxNodes, Seen: len(seen)})
					return
				}
				next = append(next, task{url: l.URL, depth: t.depth + 1, collection: t.collection})
			}
		}
		// Items of a level are released only once the level's links fit the
		// budget.
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
		slices.SortFunc(next, func(a, b task) int { return strings.Compare(a.url, b.url) })
		level = next
	}
	if w.logger != nil {
		w.logger.Debugf("traverse: done root=%s visited=%d items=%d skipped=%d", rootURL, sum.Visited, sum.Items, sum.Skipped)
	}
}

func (w *Walker) fetchLevel(ctx context.Context, level []task) []fetched {
	results := make([]fetched, len(level))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(w.concurrency, 1))
	for i, t := range level {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].err = &fetch.FetchError{Kind: fetch.KindNetwork, URL: t.url, Err: err}
				return nil
			}
			results[i].entry, results[i].err = w.source.GetOrFetch(gctx, t.url)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// decode turns a fetch result into a node. A nil node with a nil error
// means the node was skipped and counted.
func (w *Walker) decode(t task, r fetched, sum *Summary) (*stac.Node, error) {
	if r.err != nil {
		fe := fetch.AsFetchError(t.url, r.err)
		if t.depth == 0 || !w.skipFetchErrors {
			return nil, fe
		}
		sum.FetchFailures = append(sum.FetchFailures, FetchFailure{URL: t.url, Kind: string(fe.Kind), Status: fe.Status})
		w.skip(t, fe, sum)
		return nil, nil
	}
	node, err := stac.Decode(r.entry.URL, r.entry.Body)
	if err != nil {
		if t.depth == 0 {
			return nil, err
		}
		w.skip(t, err, sum)
		return nil, nil
	}
	return node, nil
}

func (w *Walker) skip(t task, err error, sum *Summary) {
	reason := "other"
	var malformed *stac.MalformedNodeError
	var fe *fetch.FetchError
	switch {
	case errors.As(err, &malformed):
		reason = malformed.Code
	case errors.As(err, &fe):
		reason = "fetch_" + string(fe.Kind)
	}
	sum.Skipped++
	if sum.SkippedByReason == nil {
		sum.SkippedByReason = make(map[string]int)
	}
	sum.SkippedByReason[reason]++
	metrics.IncTraversalNode("skipped_" + reason)
	if w.logger != nil {
		w.logger.Debugf("traverse: skip url=%s reason=%s: %v", t.url, reason, err)
	}
}

func (w *Walker) report(t task, n *stac.Node, sum *Summary) {
	if w.progress == nil {
		return
	}
	w.progress(Progress{
		URL:     t.url,
		Type:    n.Type,
		ID:      n.ID,
		Depth:   t.depth,
		Visited: sum.Visited,
		Items:   sum.Items,
		Skipped: sum.Skipped,
	})
}
