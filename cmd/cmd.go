// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles configuration scaffolding.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a config file and verify credentials",
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

// matchCommand handles track matching without creating anything.
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Match harvested tracks against the Spotify catalog",
		Commands: []*cli.Command{
			{
				Name:  "track",
				Usage: "Match a single track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "title"},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "artist",
						Aliases:  []string{"a"},
						Usage:    "Artist name (repeatable)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.MatchTrack,
			},
			{
				Name:  "playlist",
				Usage: "Match every track in a harvested playlist file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write match results JSON to a file",
					},
				},
				Action: r.MatchPlaylist,
			},
		},
	}
}

// migrateCommand runs a full migration session.
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Migrate harvested playlists to Spotify",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-review",
				Usage: "Add low-confidence matches instead of deferring them",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the final report as raw JSON",
			},
			&cli.StringFlag{
				Name:  "review-csv",
				Usage: "Write review-pending tracks to a CSV file",
			},
			&cli.StringFlag{
				Name:  "report-md",
				Usage: "Write the report as Markdown",
			},
		},
		Action: r.Migrate,
	}
}

// sessionsCommand inspects archived migration sessions.
func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect archived migration sessions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List archived sessions",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SessionsList,
			},
			{
				Name:  "show",
				Usage: "Show the full report of one session",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SessionsShow,
			},
		},
	}
}
