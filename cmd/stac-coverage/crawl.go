package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/query"
	"github.com/robert-malhotra/stac-coverage/pkg/traverse"
)

func newCrawlCommand() *cli.Command {
	return &cli.Command{
		Name:  "crawl",
		Usage: "Walk the catalog and report what it holds",
		Flags: []cli.Flag{
			outputFlag,
			geometryFlag,
			&cli.BoolFlag{
				Name:  "items",
				Usage: "stream every item as a JSON array instead of printing the summary",
			},
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"i"},
				Usage:   "with --items, prompt after this many items",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "report walk progress on stderr",
			},
		},
		Action: crawlAction,
	}
}

func crawlAction(ctx context.Context, cmd *cli.Command) error {
	format, err := parseFormat(cmd.String(outputFlag.Name))
	if err != nil {
		return err
	}

	var opts []traverse.Option
	if cmd.Bool("progress") {
		opts = append(opts, traverse.WithProgress(progressPrinter(cmd.Root().ErrWriter)))
	}
	rt, err := newRuntime(cmd, opts...)
	if err != nil {
		return err
	}
	out := cmd.Root().Writer

	if cmd.Bool("items") {
		viewOpts := []query.ViewOption{query.WithoutProperties()}
		if !cmd.Bool(geometryFlag.Name) {
			viewOpts = append(viewOpts, query.WithoutGeometry())
		}
		marshal := func(it *index.Item) ([]byte, error) {
			return json.Marshal(query.NewItemView(it, viewOpts...))
		}
		seq := rt.walker.Traverse(ctx, rt.root)
		if page := int(cmd.Int("page")); page > 0 {
			_, err = writeJSONArrayPaged(out, cmd.Root().ErrWriter, cmd.Root().Reader, page, seq, marshal)
		} else {
			_, err = writeJSONArray(out, seq, marshal)
		}
		return err
	}

	res, err := rt.walker.Collect(ctx, rt.root)
	if cmd.Bool("progress") {
		fmt.Fprintln(cmd.Root().ErrWriter)
	}
	if err != nil {
		return err
	}
	rt.log.Info().Int("items", res.Summary.Items).Int("visited", res.Summary.Visited).Msg("crawl complete")
	if format == formatJSON {
		return writeJSON(out, struct {
			Root string `json:"root"`
			traverse.Summary
		}{rt.root, res.Summary})
	}
	return writeSummaryTable(out, rt.root, res.Summary)
}

// progressPrinter rewrites a single status line for every node in the top
// two levels and every hundredth node below them.
func progressPrinter(w io.Writer) traverse.ProgressFunc {
	if w == nil {
		w = os.Stderr
	}
	return func(p traverse.Progress) {
		if p.Visited%100 != 0 && p.Depth > 1 {
			return
		}
		fmt.Fprintf(w, "\rvisited %d  items %d  skipped %d  depth %d", p.Visited, p.Items, p.Skipped, p.Depth)
	}
}
