package fetch

import (
	"context"
	"net/http"
	"time"
)

// Option configures an HTTPFetcher during construction.
type Option func(*HTTPFetcher) error

// Middleware manipulates an outgoing *http.Request before it is executed.
type Middleware func(context.Context, *http.Request) error

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(f *HTTPFetcher) error {
		if httpClient == nil {
			return ErrNilHTTPClient
		}
		f.httpClient = httpClient
		return nil
	}
}

// WithDefaultHeader sets a header applied to every request, replacing any
// earlier value for key. An empty value removes the header.
func WithDefaultHeader(key, value string) Option {
	return func(f *HTTPFetcher) error {
		if key == "" {
			return nil
		}
		if f.defaultHeaders == nil {
			f.defaultHeaders = make(http.Header)
		}
		if value == "" {
			f.defaultHeaders.Del(key)
			return nil
		}
		f.defaultHeaders.Set(key, value)
		return nil
	}
}

// WithRetryPolicy configures the retry behavior for failed requests. A nil
// policy disables retries.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(f *HTTPFetcher) error {
		f.retryPolicy = policy
		return nil
	}
}

// WithMaxAttempts caps the number of tries per fetch, including the first.
func WithMaxAttempts(n int) Option {
	return func(f *HTTPFetcher) error {
		if n > 0 {
			f.maxAttempts = n
		}
		return nil
	}
}

// WithLogger registers a logger used for request lifecycle events.
func WithLogger(logger Logger) Option {
	return func(f *HTTPFetcher) error {
		f.logger = logger
		return nil
	}
}

// WithTimeout sets a per-request timeout on the underlying http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(f *HTTPFetcher) error {
		if timeout <= 0 {
			return nil
		}
		if f.httpClient == nil {
			f.httpClient = &http.Client{}
		}
		f.httpClient.Timeout = timeout
		return nil
	}
}

// WithMiddleware registers one or more request-middleware functions.
func WithMiddleware(mw ...Middleware) Option {
	return func(f *HTTPFetcher) error {
		f.middleware = append(f.middleware, mw...)
		return nil
	}
}
