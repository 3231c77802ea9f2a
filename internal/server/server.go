// Package server exposes the query engine over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/robert-malhotra/stac-coverage/pkg/query"
)

type Options struct {
	// RefreshEvery is the background refresh period; zero disables the
	// loop.
	RefreshEvery time.Duration
	// H3Resolution is used when a coverage request asks for cells without
	// naming a resolution.
	H3Resolution int
}

type Server struct {
	engine *query.Engine
	log    zerolog.Logger
	opts   Options
}

func New(engine *query.Engine, log zerolog.Logger, opts Options) *Server {
	return &Server{engine: engine, log: log, opts: opts}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Get("/status", s.status)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/metadata", s.metadata)
	r.Get("/coverage", s.coverageGET)
	r.Post("/coverage", s.coveragePOST)
	r.Post("/refresh", s.refresh)
	return r
}

// Run serves on addr until ctx is done, refreshing the index in the
// background. The first refresh runs before the listener starts; if it
// fails the server still starts and reports not ready until a later
// refresh succeeds.
func (s *Server) Run(ctx context.Context, addr string) error {
	if _, err := s.engine.EnsureFresh(ctx); err != nil {
		s.log.Error().Err(err).Str("root", s.engine.Root()).Msg("initial refresh failed")
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	loopCtx, stop := context.WithCancel(ctx)
	defer stop()
	if s.opts.RefreshEvery > 0 {
		go s.refreshLoop(loopCtx, s.opts.RefreshEvery)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http listen")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) refreshLoop(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			idx, err := s.engine.Refresh(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Error().Err(err).Msg("background refresh failed; keeping previous index")
				}
				continue
			}
			s.log.Info().Int("items", idx.Len()).Uint64("generation", idx.Generation()).Msg("index refreshed")
		}
	}
}
