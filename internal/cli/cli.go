// Package cli provides the command-line interface for beiwagen.
package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/rouhim/beiwagen/internal/config"
	"github.com/rouhim/beiwagen/internal/logging"
	"github.com/rouhim/beiwagen/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "beiwagen",
		Usage:   "Keep a BeamNG mods directory in sync with a list of beamng.com resources",
		Version: Version,
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Write logs as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		}, syncFlags()...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			configureColors(cmd)
			return ctx, configureLogging(cmd)
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSync(ctx, cmd, false)
		},
		Commands: []*cli.Command{
			syncCommand(),
			planCommand(),
			updateCommand(),
			configCommand(),
			versionCommand(),
		},
	}
	return app.Run(ctx, args)
}

// syncFlags are shared by the root command and its subcommands.
func syncFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "client-mods-dir",
			Aliases: []string{"p"},
			Usage:   "the BeamNG client mods directory, e.g. /path/to/BeamNG.drive/client-mods",
		},
		&cli.StringSliceFlag{
			Name:    "mods",
			Aliases: []string{"m"},
			Usage:   "mod ids or resource URLs to keep installed, e.g. 123,456",
		},
		&cli.StringFlag{
			Name:  "outdated",
			Usage: "how to handle outdated mods: skip or delete",
		},
		&cli.StringFlag{
			Name:  "unsupported",
			Usage: "how to handle unsupported mods: skip or delete",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "parallel downloads and lookups (1-64)",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "config file (default: " + config.FileName + " next to the executable)",
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "resource site",
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"d"},
			Usage:   "Preview changes without modifying files",
		},
		&cli.BoolFlag{
			Name:  "delete-invalid",
			Usage: "Delete .zip files that are not valid archives",
		},
		&cli.BoolFlag{
			Name:  "self-update",
			Usage: "Update beiwagen to the latest release and restart before syncing",
		},
	}
}

// configureColors sets up color output based on CLI flags.
func configureColors(cmd *cli.Command) {
	if cmd.Bool("no-color") {
		ui.DisableColors()
	}
}

// configureLogging sets up the logging level based on CLI flags.
func configureLogging(cmd *cli.Command) error {
	opts := logging.OptionsFor(cmd.Bool("verbose"), cmd.Bool("debug"), cmd.Bool("log-json"))
	logging.SetDefault(logging.New(opts))

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}
