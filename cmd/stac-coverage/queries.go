package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/stac-coverage/pkg/cql2"
	"github.com/robert-malhotra/stac-coverage/pkg/query"
)

func newMetadataCommand() *cli.Command {
	return &cli.Command{
		Name:  "metadata",
		Usage: "List the items over a point acquired within a few days of a date",
		Flags: []cli.Flag{
			&cli.FloatFlag{Name: "lat", Usage: "latitude in degrees", Required: true},
			&cli.FloatFlag{Name: "lon", Usage: "longitude in degrees", Required: true},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "YYYY-MM-DD or RFC 3339", Required: true},
			&cli.IntFlag{Name: "tolerance", Usage: "days either side of the date"},
			whereFlag,
			outputFlag,
			geometryFlag,
		},
		Action: metadataAction,
	}
}

func metadataAction(ctx context.Context, cmd *cli.Command) error {
	format, err := parseFormat(cmd.String(outputFlag.Name))
	if err != nil {
		return err
	}
	opts, err := whereOptions(cmd)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	if _, err := rt.engine.EnsureFresh(ctx); err != nil {
		return err
	}

	items, err := rt.engine.Metadata(ctx, cmd.Float("lat"), cmd.Float("lon"), cmd.String("date"), int(cmd.Int("tolerance")), opts...)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if format == formatJSON {
		return writeJSON(out, query.NewItemViews(items, viewOptions(cmd)...))
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "no items found")
		return err
	}
	return writeItemTable(out, items)
}

func newCoverageCommand() *cli.Command {
	return &cli.Command{
		Name:  "coverage",
		Usage: "Measure how much of an area was imaged during a window",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "area",
				Aliases:  []string{"a"},
				Usage:    "WKT, GeoJSON, \"minLon,minLat,maxLon,maxLat\" or @file",
				Required: true,
			},
			&cli.StringFlag{Name: "start", Usage: "window start, YYYY-MM-DD or RFC 3339", Required: true},
			&cli.StringFlag{Name: "end", Usage: "window end, YYYY-MM-DD (inclusive) or RFC 3339", Required: true},
			&cli.BoolFlag{Name: "cells", Usage: "report covered and uncovered H3 cells"},
			&cli.IntFlag{Name: "h3-resolution", Usage: "H3 resolution for --cells (default from config)"},
			whereFlag,
			outputFlag,
			geometryFlag,
		},
		Action: coverageAction,
	}
}

func coverageAction(ctx context.Context, cmd *cli.Command) error {
	format, err := parseFormat(cmd.String(outputFlag.Name))
	if err != nil {
		return err
	}
	area, err := readArea(cmd.String("area"))
	if err != nil {
		return err
	}
	opts, err := whereOptions(cmd)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("cells") {
		res := rt.cfg.Index.H3Resolution
		if cmd.IsSet("h3-resolution") {
			res = int(cmd.Int("h3-resolution"))
		}
		opts = append(opts, query.WithCells(res))
	}
	if _, err := rt.engine.EnsureFresh(ctx); err != nil {
		return err
	}

	res, err := rt.engine.Coverage(ctx, area, cmd.String("start"), cmd.String("end"), opts...)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if format == formatJSON {
		return writeJSON(out, res.View(viewOptions(cmd)...))
	}
	return writeCoverageTable(out, res)
}

// readArea returns s, or the contents of the file it names when prefixed
// with @.
func readArea(s string) (string, error) {
	path, ok := strings.CutPrefix(s, "@")
	if !ok {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("area: %w", err)
	}
	return string(data), nil
}

func whereOptions(cmd *cli.Command) ([]query.QueryOption, error) {
	expr := strings.TrimSpace(cmd.String(whereFlag.Name))
	if expr == "" {
		return nil, nil
	}
	f, err := cql2.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("--where: %w", err)
	}
	return []query.QueryOption{query.Where(f)}, nil
}

func viewOptions(cmd *cli.Command) []query.ViewOption {
	if cmd.Bool(geometryFlag.Name) {
		return nil
	}
	return []query.ViewOption{query.WithoutGeometry()}
}
