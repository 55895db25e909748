// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the lookup cache database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// enrichCommand handles library and single-track enrichment
func enrichCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "enrich",
		Usage: "Enrich MP3 metadata from the configured sources",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Enrich every MP3 under a directory",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "dir",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "report",
						Aliases: []string{"o"},
						Usage:   "Report output path (.csv, .md, .json, or text)",
					},
					&cli.BoolFlag{
						Name:  "write",
						Usage: "Write enriched tags next to each file",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Skip the lookup cache",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Scan and list tracks without querying any source",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent worker count (overrides config)",
					},
					&cli.FloatFlag{
						Name:  "confidence",
						Usage: "Genre confidence threshold (overrides config)",
					},
					&cli.IntFlag{
						Name:  "max-genres",
						Usage: "Final genre cap per track (overrides config)",
					},
				},
				Action: r.EnrichRun,
			},
			{
				Name:  "track",
				Usage: "Enrich a single artist/title pair and print the result",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "artist",
						Usage:    "Track artist",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Track title",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.EnrichTrack,
			},
		},
	}
}

// sourcesCommand handles metadata source operations
func sourcesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "sources",
		Aliases: []string{"src"},
		Usage:   "Inspect and test the configured metadata sources",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List configured sources and their rate limits",
				Action: r.SourcesList,
			},
			{
				Name:  "test",
				Usage: "Run a test lookup against every configured source",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Track artist for the test lookup",
						Value: "Radiohead",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Track title for the test lookup",
						Value: "Karma Police",
					},
				},
				Action: r.SourcesTest,
			},
		},
	}
}

// metricsCommand handles per-source API metrics
func metricsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Show and reset per-source API metrics",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show recorded metrics for all sources",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Output CSV",
					},
				},
				Action: r.MetricsShow,
			},
			{
				Name:  "reset",
				Usage: "Reset metrics for one source, or all sources",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source to reset (resets everything when omitted)",
					},
				},
				Action: r.MetricsReset,
			},
		},
	}
}

// cacheCommand handles the persistent lookup cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear the lookup cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cached lookup counts per source",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:  "clear",
				Usage: "Clear cached lookups for one source, or all sources",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source to clear (clears everything when omitted)",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive enrichment.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for library enrichment",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "dir",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "write",
				Usage: "Write enriched tags next to each file",
			},
		},
		Action: r.TUI,
	}
}
