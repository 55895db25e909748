package main

import (
	"context"

	"github.com/desertthunder/tagx/internal/formatter"
	"github.com/urfave/cli/v3"
)

// MetricsShow prints recorded per-source metrics as a table, JSON, or CSV.
func (r *Runner) MetricsShow(ctx context.Context, cmd *cli.Command) error {
	switch {
	case cmd.Bool("json"):
		data, err := formatter.MetricsToJSON(r.tracker)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", data)
	case cmd.Bool("csv"):
		data, err := formatter.MetricsToCSV(r.tracker)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return r.writePlain("%s", formatter.MetricsToText(r.tracker))
	}
}

// MetricsReset clears recorded metrics for one source, or all of them.
func (r *Runner) MetricsReset(ctx context.Context, cmd *cli.Command) error {
	source := cmd.String("source")
	r.tracker.Reset(source)

	if source == "" {
		r.logger.Info("reset metrics for all sources")
		return r.writePlain("✓ Metrics reset for all sources\n")
	}

	r.logger.Info("reset metrics", "source", source)
	return r.writePlain("✓ Metrics reset for %s\n", source)
}
