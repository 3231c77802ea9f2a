package cache

import (
	"fmt"
	"time"

	"github.com/robert-malhotra/stac-coverage/pkg/fetch"
)

// Option configures a Cache during construction.
type Option func(*Cache) error

// WithTTL sets how long entries stay fresh.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) error {
		if ttl <= 0 {
			return fmt.Errorf("cache: ttl must be positive, got %s", ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// WithCapacity bounds the number of in-memory entries.
func WithCapacity(n int) Option {
	return func(c *Cache) error {
		if n <= 0 {
			return fmt.Errorf("cache: capacity must be positive, got %d", n)
		}
		c.capacity = n
		return nil
	}
}

// WithDiskDir enables the disk tier rooted at dir.
func WithDiskDir(dir string) Option {
	return func(c *Cache) error {
		c.diskDir = dir
		return nil
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) error {
		if now != nil {
			c.now = now
		}
		return nil
	}
}

// WithLogger registers a logger for fetch failures and disk errors.
func WithLogger(logger fetch.Logger) Option {
	return func(c *Cache) error {
		c.logger = logger
		return nil
	}
}
