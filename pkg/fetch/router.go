package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Router dispatches fetches to a Fetcher by URL scheme.
type Router struct {
	routes map[string]Fetcher
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]Fetcher)}
}

// Handle registers f for the given schemes.
func (r *Router) Handle(f Fetcher, schemes ...string) *Router {
	for _, s := range schemes {
		r.routes[strings.ToLower(s)] = f
	}
	return r
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	s := schemeOf(rawURL)
	f, ok := r.routes[s]
	if !ok {
		return nil, &FetchError{Kind: KindNetwork, URL: rawURL, Err: fmt.Errorf("%w %q", ErrUnsupportedScheme, s)}
	}
	return f.Fetch(ctx, rawURL)
}

func schemeOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}
