package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/stac-coverage/internal/config"
	"github.com/robert-malhotra/stac-coverage/internal/server"
)

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve metadata and coverage queries over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (default: :8080)"},
			&cli.DurationFlag{Name: "refresh-interval", Usage: "index rebuild period (default: the cache TTL)"},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("addr") {
		rt.cfg.Server.Addr = cmd.String("addr")
	}
	if cmd.IsSet("refresh-interval") {
		rt.cfg.Server.RefreshInterval = config.Duration{Duration: cmd.Duration("refresh-interval")}
	}

	srv := server.New(rt.engine, rt.log, server.Options{
		RefreshEvery: rt.cfg.RefreshEvery(),
		H3Resolution: rt.cfg.Index.H3Resolution,
	})
	rt.log.Info().Str("root", rt.root).Dur("refresh_every", rt.cfg.RefreshEvery()).Msg("starting server")
	return srv.Run(ctx, rt.cfg.Server.Addr)
}
