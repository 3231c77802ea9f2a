// Package fetch retrieves catalog documents. The traversal and cache layers
// depend only on the Fetcher interface; the concrete fetchers here cover
// HTTP(S), S3 and local files, and a Router dispatches between them by URL
// scheme. Retries belong to the transports, never to the callers.
package fetch

import (
	"context"
	"time"
)

// Document is a fetched catalog document.
type Document struct {
	URL          string
	Body         []byte
	ETag         string
	LastModified time.Time
}

// Fetcher retrieves the document at an absolute URL. Failures are returned
// as *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Document, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (*Document, error)

// Fetch implements the Fetcher interface.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (*Document, error) {
	return f(ctx, url)
}

// Logger represents the minimal logging interface used by the fetchers,
// the cache and the traversal engine.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}
