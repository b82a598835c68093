// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "export",
			Aliases: []string{"e"},
			Usage:   "Output encoding: text, md or csv",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to this file instead of stdout",
		},
	}
}

// setupCommand handles first-run setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file populated with defaults",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the cache database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// probeCommand prints what a URL resolves to without downloading anything.
func probeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Aliases:   []string{"info"},
		Usage:     "Show the formats of a video or the entries of a playlist",
		ArgsUsage: "<url>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Ignore cached results",
			},
		}, exportFlags()...),
		Action: r.Probe,
	}
}

// getCommand downloads without the TUI.
func getCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Aliases:   []string{"dl"},
		Usage:     "Download a URL (or every entry of a playlist) using the queue without the TUI",
		ArgsUsage: "<url>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Format ID to download (default: best available)",
			},
			&cli.BoolFlag{
				Name:  "audio",
				Usage: "Prefer the best audio-only format",
			},
			&cli.BoolFlag{
				Name:  "playlist",
				Usage: "Queue every entry when the URL is a playlist",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Output directory (overrides downloads.output_dir)",
			},
		},
		Action: r.Get,
	}
}

// cacheCommand manages the probe result cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage cached probe results",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List live cache entries, newest first",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cache entry",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheClear,
			},
			{
				Name:   "prune",
				Usage:  "Remove expired cache entries",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CachePrune,
			},
		},
	}
}

// historyCommand prints finished downloads.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show finished downloads, newest first",
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of records",
				Value:   20,
			},
		}, exportFlags()...),
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command for interactive queue management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive download queue",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
