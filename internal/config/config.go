// Package config loads runtime settings. Values come from built-in
// defaults, then an optional TOML file, then STAC_* environment variables,
// then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultRoot is the Wyvern open data catalog.
const DefaultRoot = "https://wyvern-prod-public-open-data-program.s3.ca-central-1.amazonaws.com/catalog.json"

type Config struct {
	Root     string         `toml:"root"`
	Cache    CacheConfig    `toml:"cache"`
	Fetch    FetchConfig    `toml:"fetch"`
	Traverse TraverseConfig `toml:"traverse"`
	Index    IndexConfig    `toml:"index"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
}

type CacheConfig struct {
	TTL      Duration `toml:"ttl"`
	Capacity int      `toml:"capacity"`
	// Dir enables the on-disk tier when set.
	Dir string `toml:"dir"`
}

type FetchConfig struct {
	Timeout       Duration `toml:"timeout"`
	RetryAttempts int      `toml:"retry_attempts"`
	UserAgent     string   `toml:"user_agent"`
	AWSRegion     string   `toml:"aws_region"`
}

type TraverseConfig struct {
	MaxNodes        int  `toml:"max_nodes"`
	Concurrency     int  `toml:"concurrency"`
	SkipFetchErrors bool `toml:"skip_fetch_errors"`
}

type IndexConfig struct {
	CellSize     float64 `toml:"cell_size"`
	H3Resolution int     `toml:"h3_resolution"`
}

type LoggingConfig struct {
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
}

type ServerConfig struct {
	Addr            string   `toml:"addr"`
	RefreshInterval Duration `toml:"refresh_interval"`
}

// Duration reads Go duration strings ("90s", "1h") from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Root: DefaultRoot,
		Cache: CacheConfig{
			TTL:      Duration{time.Hour},
			Capacity: 4096,
		},
		Fetch: FetchConfig{
			Timeout:       Duration{30 * time.Second},
			RetryAttempts: 3,
			UserAgent:     "stac-coverage",
			AWSRegion:     "ca-central-1",
		},
		Traverse: TraverseConfig{
			MaxNodes:    100000,
			Concurrency: 8,
		},
		Index: IndexConfig{
			CellSize:     1.0,
			H3Resolution: 5,
		},
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

// Load applies the file at path, when non-empty, and the environment on
// top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from STAC_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *Duration) {
		if v, ok := lookup(key); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}

	str("STAC_ROOT", &c.Root)
	dur("STAC_CACHE_TTL", &c.Cache.TTL)
	num("STAC_CACHE_CAPACITY", &c.Cache.Capacity)
	str("STAC_CACHE_DIR", &c.Cache.Dir)
	dur("STAC_HTTP_TIMEOUT", &c.Fetch.Timeout)
	num("STAC_RETRY_ATTEMPTS", &c.Fetch.RetryAttempts)
	str("STAC_USER_AGENT", &c.Fetch.UserAgent)
	str("STAC_AWS_REGION", &c.Fetch.AWSRegion)
	num("STAC_MAX_NODES", &c.Traverse.MaxNodes)
	num("STAC_CONCURRENCY", &c.Traverse.Concurrency)
	boolean("STAC_SKIP_FETCH_ERRORS", &c.Traverse.SkipFetchErrors)
	float("STAC_CELL_SIZE", &c.Index.CellSize)
	num("STAC_H3_RESOLUTION", &c.Index.H3Resolution)
	str("STAC_LOG_LEVEL", &c.Logging.Level)
	boolean("STAC_LOG_CONSOLE", &c.Logging.Console)
	str("STAC_ADDR", &c.Server.Addr)
	dur("STAC_REFRESH_INTERVAL", &c.Server.RefreshInterval)

	if len(errs) > 0 {
		return fmt.Errorf("config: environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Root) == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if c.Cache.TTL.Duration <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL))
	}
	if c.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("cache capacity must be positive, got %d", c.Cache.Capacity))
	}
	if c.Fetch.Timeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("http timeout must not be negative, got %s", c.Fetch.Timeout))
	}
	if c.Fetch.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry attempts must be at least 1, got %d", c.Fetch.RetryAttempts))
	}
	if c.Traverse.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Traverse.Concurrency))
	}
	if c.Index.H3Resolution < 0 || c.Index.H3Resolution > 15 {
		errs = append(errs, fmt.Errorf("h3 resolution must be in [0,15], got %d", c.Index.H3Resolution))
	}
	if c.Server.RefreshInterval.Duration < 0 {
		errs = append(errs, fmt.Errorf("refresh interval must not be negative, got %s", c.Server.RefreshInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// RefreshEvery is how often a server rebuilds its index; it defaults to
// the cache TTL.
func (c Config) RefreshEvery() time.Duration {
	if c.Server.RefreshInterval.Duration > 0 {
		return c.Server.RefreshInterval.Duration
	}
	return c.Cache.TTL.Duration
}
