// Package cache memoizes fetched catalog documents by normalized URL.
//
// Entries live in a bounded LRU and expire after a TTL. Concurrent lookups
// of the same URL share a single fetch; distinct URLs fetch in parallel.
// Failures are never stored, so a transient error heals on the next call.
// An optional disk tier keeps entries across restarts of the process while
// they are still fresh.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/robert-malhotra/stac-coverage/internal/metrics"
	"github.com/robert-malhotra/stac-coverage/pkg/fetch"
	"github.com/robert-malhotra/stac-coverage/pkg/stac"
)

const (
	DefaultTTL      = time.Hour
	DefaultCapacity = 4096
)

// Entry is an immutable snapshot of a cached document.
type Entry struct {
	URL       string    `json:"url"`
	Body      []byte    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
	ETag      string    `json:"etag,omitempty"`
	// Hash is the xxhash64 of Body in hex.
	Hash string `json:"hash"`
}

// Age returns how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration { return now.Sub(e.FetchedAt) }

func (e *Entry) snapshot() Entry {
	cp := *e
	cp.Body = make([]byte, len(e.Body))
	copy(cp.Body, e.Body)
	return cp
}

// Stats are cumulative counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	DiskHits  int64 `json:"disk_hits"`
	Misses    int64 `json:"misses"`
	Fetches   int64 `json:"fetches"`
	Failures  int64 `json:"failures"`
	Evictions int64 `json:"evictions"`
	Len       int   `json:"len"`
}

// Cache is safe for concurrent use.
type Cache struct {
	fetcher  fetch.Fetcher
	ttl      time.Duration
	capacity int
	diskDir  string
	now      func() time.Time
	logger   fetch.Logger

	store *lru.Cache[string, *Entry]
	group singleflight.Group

	hits, diskHits, misses, fetches, failures, evictions atomic.Int64
}

// New builds a Cache in front of f.
func New(f fetch.Fetcher, opts ...Option) (*Cache, error) {
	if f == nil {
		return nil, fmt.Errorf("cache: fetcher is required")
	}
	c := &Cache{
		fetcher:  f,
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	store, err := lru.New[string, *Entry](c.capacity)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	c.store = store
	if c.diskDir != "" {
		if err := ensureDir(c.diskDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) fresh(e *Entry) bool {
	return e != nil && e.Age(c.now()) < c.ttl
}

// GetOrFetch returns the entry for rawURL, fetching it when absent or
// stale. Errors are *fetch.FetchError.
func (c *Cache) GetOrFetch(ctx context.Context, rawURL string) (Entry, error) {
	key, err := stac.NormalizeURL(rawURL)
	if err != nil {
		return Entry{}, &fetch.FetchError{Kind: fetch.KindNetwork, URL: rawURL, Err: err}
	}

	if e, ok := c.lookup(key); ok {
		return e.snapshot(), nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// a flight that finished just before this one may have stored it
		if e, ok := c.store.Peek(key); ok && c.fresh(e) {
			return e, nil
		}
		c.misses.Add(1)
		metrics.IncCacheMiss()
		// The flight is shared; one caller giving up must not fail the
		// others. Each caller still returns early on its own ctx below.
		return c.load(context.WithoutCancel(ctx), key)
	})

	select {
	case <-ctx.Done():
		return Entry{}, &fetch.FetchError{Kind: fetch.KindNetwork, URL: key, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Entry{}, fetch.AsFetchError(key, res.Err)
		}
		return res.Val.(*Entry).snapshot(), nil
	}
}

func (c *Cache) lookup(key string) (*Entry, bool) {
	if e, ok := c.store.Get(key); ok && c.fresh(e) {
		c.hits.Add(1)
		metrics.IncCacheHit()
		return e, true
	}
	if c.diskDir == "" {
		return nil, false
	}
	e, err := c.readDisk(key)
	if err != nil || !c.fresh(e) {
		return nil, false
	}
	c.add(key, e)
	c.diskHits.Add(1)
	metrics.IncCacheDiskHit()
	return e, true
}

func (c *Cache) load(ctx context.Context, key string) (*Entry, error) {
	c.fetches.Add(1)
	doc, err := c.fetcher.Fetch(ctx, key)
	if err != nil {
		c.failures.Add(1)
		if c.logger != nil {
			c.logger.Errorf("cache: fetch %s failed: %v", key, err)
		}
		return nil, fetch.AsFetchError(key, err)
	}
	body := make([]byte, len(doc.Body))
	copy(body, doc.Body)
	e := &Entry{
		URL:       key,
		Body:      body,
		FetchedAt: c.now(),
		ETag:      doc.ETag,
		Hash:      fmt.Sprintf("%016x", xxhash.Sum64(body)),
	}
	c.add(key, e)
	if c.diskDir != "" {
		if err := c.writeDisk(key, e); err != nil && c.logger != nil {
			c.logger.Errorf("cache: disk write %s: %v", key, err)
		}
	}
	return e, nil
}

func (c *Cache) add(key string, e *Entry) {
	if evicted := c.store.Add(key, e); evicted {
		c.evictions.Add(1)
		metrics.IncCacheEviction()
	}
}

// Invalidate drops rawURL so the next lookup fetches it again.
func (c *Cache) Invalidate(rawURL string) {
	key, err := stac.NormalizeURL(rawURL)
	if err != nil {
		return
	}
	c.store.Remove(key)
	if c.diskDir != "" {
		c.removeDisk(key)
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.store.Purge()
	if c.diskDir != "" {
		c.purgeDisk()
	}
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		DiskHits:  c.diskHits.Load(),
		Misses:    c.misses.Load(),
		Fetches:   c.fetches.Load(),
		Failures:  c.failures.Load(),
		Evictions: c.evictions.Load(),
		Len:       c.store.Len(),
	}
}
