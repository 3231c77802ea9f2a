package traverse

import (
	"github.com/robert-malhotra/stac-coverage/pkg/fetch"
	"github.com/robert-malhotra/stac-coverage/pkg/stac"
)

// Option configures a Walker.
type Option func(*Walker)

// WithMaxNodes caps the distinct URLs one walk may discover, root
// included. Zero or less removes the cap.
func WithMaxNodes(n int) Option {
	return func(w *Walker) { w.maxNodes = n }
}

// WithConcurrency bounds in-flight fetches per level.
func WithConcurrency(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithSkipFetchErrors records failed child fetches in the summary and
// continues instead of failing the walk. The root is always fatal.
func WithSkipFetchErrors(skip bool) Option {
	return func(w *Walker) { w.skipFetchErrors = skip }
}

// WithLogger registers a logger for skip and lifecycle events.
func WithLogger(l fetch.Logger) Option {
	return func(w *Walker) { w.logger = l }
}

// ProgressFunc receives one event per node processed.
type ProgressFunc func(Progress)

// WithProgress registers a progress callback. It runs on the walking
// goroutine.
func WithProgress(fn ProgressFunc) Option {
	return func(w *Walker) { w.progress = fn }
}

// Progress describes one processed node and the running totals.
type Progress struct {
	URL     string
	Type    stac.NodeType
	ID      string
	Depth   int
	Visited int
	Items   int
	Skipped int
}
