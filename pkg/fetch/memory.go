package fetch

import (
	"context"
	"encoding/json"
	"sync"
)

// MapFetcher serves documents from memory and counts calls per URL. It is
// meant for tests and for fixtures embedded in tools.
type MapFetcher struct {
	mu       sync.Mutex
	docs     map[string][]byte
	failures map[string]*FetchError
	calls    map[string]int

	// Hook, when set, runs at the start of every Fetch.
	Hook func(ctx context.Context, url string)
}

// NewMapFetcher returns an empty MapFetcher.
func NewMapFetcher() *MapFetcher {
	return &MapFetcher{
		docs:     make(map[string][]byte),
		failures: make(map[string]*FetchError),
		calls:    make(map[string]int),
	}
}

// Set stores body for url.
func (m *MapFetcher) Set(url string, body []byte) *MapFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[url] = body
	return m
}

// SetJSON stores the JSON encoding of v for url. It panics if v cannot be
// encoded.
func (m *MapFetcher) SetJSON(url string, v any) *MapFetcher {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return m.Set(url, data)
}

// Fail makes every fetch of url return a failure of the given kind. For
// KindHTTPStatus, status is the reported code.
func (m *MapFetcher) Fail(url string, kind Kind, status int) *MapFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[url] = &FetchError{Kind: kind, URL: url, Status: status}
	return m
}

// Heal removes an injected failure.
func (m *MapFetcher) Heal(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, url)
}

// Calls returns how many times url was fetched.
func (m *MapFetcher) Calls(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

// TotalCalls returns the number of fetches across all URLs.
func (m *MapFetcher) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// Fetch implements Fetcher. Unknown URLs are http_status 404.
func (m *MapFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	if m.Hook != nil {
		m.Hook(ctx, url)
	}
	m.mu.Lock()
	m.calls[url]++
	fail := m.failures[url]
	body, ok := m.docs[url]
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: url, Err: err}
	}
	if fail != nil {
		cp := *fail
		return nil, &cp
	}
	if !ok {
		return nil, &FetchError{Kind: KindHTTPStatus, URL: url, Status: 404}
	}
	if err := checkJSON(url, body); err != nil {
		return nil, err
	}
	out := make([]byte, len(body))
	copy(out, body)
	return &Document{URL: url, Body: out}, nil
}
