package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/stac-coverage/internal/config"
)

var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "table or json",
		Value:   string(formatTable),
	}
	whereFlag = &cli.StringFlag{
		Name:    "where",
		Aliases: []string{"w"},
		Usage:   "CQL2 text or JSON property filter, e.g. \"eo:cloud_cover < 20\"",
	}
	geometryFlag = &cli.BoolFlag{
		Name:  "geometry",
		Usage: "include item footprints in JSON output",
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "stac-coverage",
		Usage: "Walk a STAC catalog and answer metadata and coverage questions",
		Flags: config.Flags(),
		Commands: []*cli.Command{
			newCrawlCommand(),
			newMetadataCommand(),
			newCoverageCommand(),
			newServeCommand(),
			newBrowseCommand(),
		},
	}
}
