package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/robert-malhotra/stac-coverage/internal/metrics"
)

// maxBodyBytes bounds a single catalog document.
const maxBodyBytes = 64 << 20

// HTTPFetcher fetches documents over HTTP(S).
type HTTPFetcher struct {
	httpClient     *http.Client
	defaultHeaders http.Header
	retryPolicy    RetryPolicy
	maxAttempts    int
	logger         Logger
	middleware     []Middleware
}

// NewHTTPFetcher constructs an HTTPFetcher with provided options.
func NewHTTPFetcher(opts ...Option) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		defaultHeaders: make(http.Header),
		retryPolicy:    DefaultRetryPolicy,
		maxAttempts:    DefaultMaxAttempts,
	}
	f.defaultHeaders.Set("Accept", "application/json, application/geo+json")
	f.defaultHeaders.Set("User-Agent", "stac-coverage/0.1")

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	if f.httpClient == nil {
		return nil, ErrNilHTTPClient
	}
	return f, nil
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	start := time.Now()
	doc, err := f.fetch(ctx, url)
	metrics.ObserveFetch(schemeOf(url), time.Since(start).Seconds())
	if err != nil {
		fe := AsFetchError(url, err)
		metrics.IncFetchFailure(string(fe.Kind))
		return nil, fe
	}
	return doc, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, url string) (*Document, error) {
	if f.logger != nil {
		f.logger.Debugf("fetch: GET %s", url)
	}
	req, err := f.newRequest(ctx, url)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: url, Err: err}
	}
	resp, err := f.retry(ctx, func() (*http.Response, error) {
		return f.httpClient.Do(req)
	})
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		if f.logger != nil {
			f.logger.Errorf("fetch: request failed url=%s status=%d", url, resp.StatusCode)
		}
		return nil, &FetchError{Kind: KindHTTPStatus, URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: url, Err: err}
	}
	if len(body) > maxBodyBytes {
		return nil, &FetchError{Kind: KindParse, URL: url, Err: fmt.Errorf("document exceeds %d bytes", maxBodyBytes)}
	}
	if err := checkJSON(url, body); err != nil {
		return nil, err
	}

	doc := &Document{URL: url, Body: body, ETag: resp.Header.Get("ETag")}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			doc.LastModified = t
		}
	}
	return doc, nil
}

func (f *HTTPFetcher) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range f.defaultHeaders {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	for _, mw := range f.middleware {
		if mw == nil {
			continue
		}
		if err := mw(ctx, req); err != nil {
			return nil, fmt.Errorf("middleware: %w", err)
		}
	}
	return req, nil
}
