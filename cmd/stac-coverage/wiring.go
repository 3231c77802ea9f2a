package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/stac-coverage/internal/config"
	"github.com/robert-malhotra/stac-coverage/internal/logger"
	"github.com/robert-malhotra/stac-coverage/pkg/cache"
	"github.com/robert-malhotra/stac-coverage/pkg/fetch"
	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/query"
	"github.com/robert-malhotra/stac-coverage/pkg/stac"
	"github.com/robert-malhotra/stac-coverage/pkg/traverse"
)

// runtime is everything a command needs, built from the resolved config.
type runtime struct {
	cfg    config.Config
	root   string
	log    zerolog.Logger
	cache  *cache.Cache
	walker *traverse.Walker
	engine *query.Engine
}

func newRuntime(cmd *cli.Command, extra ...traverse.Option) (*runtime, error) {
	cfg, err := config.FromCommand(cmd)
	if err != nil {
		return nil, err
	}
	log := logger.Build(logger.Config{
		Level:     cfg.Logging.Level,
		Console:   cfg.Logging.Console,
		Component: "stac-coverage",
	}, os.Stderr)
	return buildRuntime(cfg, log, extra...)
}

func buildRuntime(cfg config.Config, log zerolog.Logger, extra ...traverse.Option) (*runtime, error) {
	root, err := stac.Location(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("root %q: %w", cfg.Root, err)
	}
	printf := logger.Adapt(log)

	src, err := newFetcher(cfg, printf)
	if err != nil {
		return nil, err
	}

	cacheOpts := []cache.Option{
		cache.WithTTL(cfg.Cache.TTL.Duration),
		cache.WithCapacity(cfg.Cache.Capacity),
		cache.WithLogger(printf),
	}
	if cfg.Cache.Dir != "" {
		cacheOpts = append(cacheOpts, cache.WithDiskDir(cfg.Cache.Dir))
	}
	c, err := cache.New(src, cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	walkOpts := []traverse.Option{
		traverse.WithMaxNodes(cfg.Traverse.MaxNodes),
		traverse.WithConcurrency(cfg.Traverse.Concurrency),
		traverse.WithSkipFetchErrors(cfg.Traverse.SkipFetchErrors),
		traverse.WithLogger(printf),
	}
	w := traverse.New(c, append(walkOpts, extra...)...)

	engine := query.New(w, root,
		query.WithTTL(cfg.Cache.TTL.Duration),
		query.WithIndexOptions(index.WithCellSize(cfg.Index.CellSize)),
		query.WithLogger(printf),
	)

	return &runtime{cfg: cfg, root: root, log: log, cache: c, walker: w, engine: engine}, nil
}

// newFetcher routes http(s), s3 and file URLs to their fetchers.
func newFetcher(cfg config.Config, log fetch.Logger) (fetch.Fetcher, error) {
	httpFetcher, err := fetch.NewHTTPFetcher(
		fetch.WithTimeout(cfg.Fetch.Timeout.Duration),
		fetch.WithMaxAttempts(cfg.Fetch.RetryAttempts),
		fetch.WithDefaultHeader("User-Agent", cfg.Fetch.UserAgent),
		fetch.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("http fetcher: %w", err)
	}

	router := fetch.NewRouter().
		Handle(httpFetcher, "http", "https").
		Handle(fetch.FileFetcher{}, "file").
		Handle(lazyS3(cfg.Fetch.AWSRegion, log), "s3")
	return router, nil
}

// lazyS3 defers loading AWS configuration until the first s3:// fetch, so
// HTTP-only catalogs never touch the credential chain.
func lazyS3(region string, log fetch.Logger) fetch.Fetcher {
	var (
		once sync.Once
		f    *fetch.S3Fetcher
		err  error
	)
	return fetch.FetcherFunc(func(ctx context.Context, url string) (*fetch.Document, error) {
		once.Do(func() {
			f, err = fetch.NewS3Fetcher(context.WithoutCancel(ctx), region, true, log)
		})
		if err != nil {
			return nil, &fetch.FetchError{Kind: fetch.KindNetwork, URL: url, Err: err}
		}
		return f.Fetch(ctx, url)
	})
}
