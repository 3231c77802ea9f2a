package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNilHTTPClient indicates a nil HTTP client was provided.
	ErrNilHTTPClient = errors.New("fetch: http client cannot be nil")
	// ErrUnsupportedScheme is returned by a Router with no fetcher for a
	// URL's scheme.
	ErrUnsupportedScheme = errors.New("fetch: unsupported url scheme")
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindHTTPStatus Kind = "http_status"
	KindParse      Kind = "parse"
)

// FetchError reports a failure to retrieve or parse the document at URL.
type FetchError struct {
	Kind   Kind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Kind == KindHTTPStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Temporary reports whether the error may be retried.
func (e *FetchError) Temporary() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindNetwork:
		return !errors.Is(e.Err, context.Canceled)
	case KindHTTPStatus:
		return e.Status == 429 || (e.Status >= 500 && e.Status < 600)
	default:
		return false
	}
}

// AsFetchError returns err as a *FetchError, wrapping foreign errors as
// network failures for url.
func AsFetchError(url string, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Kind: KindNetwork, URL: url, Err: err}
}

// checkJSON rejects bodies that are not a single JSON value.
func checkJSON(url string, body []byte) error {
	if !json.Valid(body) {
		return &FetchError{Kind: KindParse, URL: url, Err: errors.New("body is not valid JSON")}
	}
	return nil
}
