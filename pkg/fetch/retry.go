package fetch

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy decides whether a request should be retried. When a retried
// 429 or 503 response carries Retry-After, the header replaces the returned
// delay.
type RetryPolicy interface {
	ShouldRetry(resp *http.Response, err error) (bool, time.Duration)
}

// RetryPolicyFunc adapts a function to the RetryPolicy interface.
type RetryPolicyFunc func(resp *http.Response, err error) (bool, time.Duration)

// ShouldRetry implements the RetryPolicy interface.
func (f RetryPolicyFunc) ShouldRetry(resp *http.Response, err error) (bool, time.Duration) {
	return f(resp, err)
}

// DefaultRetryPolicy retries network errors, throttling and server errors
// with linear backoff.
var DefaultRetryPolicy RetryPolicy = RetryPolicyFunc(func(resp *http.Response, err error) (bool, time.Duration) {
	switch {
	case err != nil:
		return true, 500 * time.Millisecond
	case resp.StatusCode == http.StatusTooManyRequests:
		return true, time.Second
	case resp.StatusCode >= 500:
		return true, 500 * time.Millisecond
	default:
		return false, 0
	}
})

// MaxRetryAfter caps the wait a server can request through Retry-After.
const MaxRetryAfter = time.Minute

// RetryAfter reads the Retry-After header of a 429 or 503 response, in
// either delta-seconds or HTTP-date form.
func RetryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0, false
	}
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = max(time.Until(t), 0)
	} else {
		return 0, false
	}
	return min(d, MaxRetryAfter), true
}

// DefaultMaxAttempts is the number of tries per fetch unless overridden.
const DefaultMaxAttempts = 3

func (f *HTTPFetcher) retry(ctx context.Context, fn func() (*http.Response, error)) (*http.Response, error) {
	policy := f.retryPolicy
	if policy == nil {
		return fn()
	}
	var attempt int
	for {
		resp, err := fn()
		attempt++
		retry, delay := policy.ShouldRetry(resp, err)
		if !retry || ctx.Err() != nil || attempt >= f.maxAttempts {
			return resp, err
		}
		wait := delay * time.Duration(attempt)
		if ra, ok := RetryAfter(resp); ok {
			wait = ra
		}
		if resp != nil {
			resp.Body.Close()
		}
		if f.logger != nil {
			f.logger.Debugf("fetch: retrying attempt=%d delay=%s", attempt+1, wait)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
