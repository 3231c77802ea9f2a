package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/stac-coverage/internal/tui"
	"github.com/robert-malhotra/stac-coverage/internal/tui/formatting"
	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/query"
)

func newBrowseCommand() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Explore the index, a point query or a coverage query interactively",
		Description: "With --area, --start and --end the matches of a coverage query are shown.\n" +
			"With --lat, --lon and --date the items of a metadata query are shown.\n" +
			"Otherwise every indexed item is listed.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "area", Aliases: []string{"a"}, Usage: "coverage area: WKT, GeoJSON, bbox or @file"},
			&cli.StringFlag{Name: "start", Usage: "coverage window start"},
			&cli.StringFlag{Name: "end", Usage: "coverage window end"},
			&cli.FloatFlag{Name: "lat", Usage: "metadata query latitude"},
			&cli.FloatFlag{Name: "lon", Usage: "metadata query longitude"},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "metadata query date"},
			&cli.IntFlag{Name: "tolerance", Usage: "days either side of --date"},
			whereFlag,
		},
		Action: browseAction,
	}
}

func browseAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := whereOptions(cmd)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	idx, err := rt.engine.EnsureFresh(ctx)
	if err != nil {
		return err
	}

	label, rows, err := browseRows(ctx, cmd, rt.engine, idx, opts)
	if err != nil {
		return err
	}
	return tui.New(label, rows).Run(ctx)
}

// browseRows runs the query the flags describe.
func browseRows(ctx context.Context, cmd *cli.Command, engine *query.Engine, idx *index.Index, opts []query.QueryOption) (string, []tui.Row, error) {
	switch {
	case cmd.IsSet("area"):
		if !cmd.IsSet("start") || !cmd.IsSet("end") {
			return "", nil, fmt.Errorf("--area needs --start and --end")
		}
		area, err := readArea(cmd.String("area"))
		if err != nil {
			return "", nil, err
		}
		res, err := engine.Coverage(ctx, area, cmd.String("start"), cmd.String("end"), opts...)
		if err != nil {
			return "", nil, err
		}
		label := fmt.Sprintf("coverage %s of %s", formatting.FormatPercent(res.Ratio), formatting.FormatArea(res.AreaM2))
		return label, tui.RowsFromCoverage(res), nil

	case cmd.IsSet("date"):
		if !cmd.IsSet("lat") || !cmd.IsSet("lon") {
			return "", nil, fmt.Errorf("--date needs --lat and --lon")
		}
		lat, lon := cmd.Float("lat"), cmd.Float("lon")
		items, err := engine.Metadata(ctx, lat, lon, cmd.String("date"), int(cmd.Int("tolerance")), opts...)
		if err != nil {
			return "", nil, err
		}
		label := fmt.Sprintf("%s,%s on %s ±%d days", formatting.FormatNumber(lat, 5), formatting.FormatNumber(lon, 5), cmd.String("date"), cmd.Int("tolerance"))
		return label, tui.RowsFromItems(items), nil

	default:
		return engine.Root(), tui.RowsFromItems(query.Select(idx.Items(), opts...)), nil
	}
}
