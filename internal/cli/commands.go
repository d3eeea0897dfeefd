package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rouhim/beiwagen/internal/catalog/local"
	"github.com/rouhim/beiwagen/internal/catalog/remote"
	"github.com/rouhim/beiwagen/internal/config"
	"github.com/rouhim/beiwagen/internal/fetch"
	"github.com/rouhim/beiwagen/internal/logging"
	"github.com/rouhim/beiwagen/internal/progress"
	"github.com/rouhim/beiwagen/internal/relaunch"
	"github.com/rouhim/beiwagen/internal/selfupdate"
	"github.com/rouhim/beiwagen/internal/sync"
	"github.com/rouhim/beiwagen/internal/ui"
)

// restartDelay gives the user a moment to read the update message.
const restartDelay = 5 * time.Second

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Download, update and delete mods to match the wanted list",
		UsageText: "beiwagen sync [options]",
		Description: `Synchronize a BeamNG mods directory with beamng.com resources.
   This is also what runs when no command is given.

   Examples:
     beiwagen sync -p ~/BeamNG.drive/mods -m 30373,30414
     beiwagen sync --outdated skip --unsupported delete
     BW_CLIENT_MODS_DIR=/srv/beammp/Resources/Client BW_MODS=30373 beiwagen`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSync(ctx, cmd, false)
		},
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Show what sync would do without changing anything",
		UsageText: "beiwagen plan [options]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSync(ctx, cmd, true)
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Update beiwagen to the latest release",
		Action: func(ctx context.Context, _ *cli.Command) error {
			st, err := selfUpdate(ctx)
			if err != nil {
				return err
			}
			if st.Updated {
				fmt.Println(ui.ToneChanged.Message(fmt.Sprintf("beiwagen updated to %s", st.Latest)))
			} else {
				fmt.Println(ui.ToneKept.Message(fmt.Sprintf("beiwagen %s is up to date", Version)))
			}
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Display the effective configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the configuration to this .toml or .yaml file",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "toml",
				Usage: "output format: toml or yaml",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if path := cmd.String("output"); path != "" {
				if err := cfg.SaveToPath(path); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				fmt.Println(ui.ToneChanged.Message("wrote " + path))
				return nil
			}

			data, err := cfg.Marshal("." + cmd.String("format"))
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

// loadConfig merges environment, flags and config file.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	flags := config.Config{
		ModsDir:       cmd.String("client-mods-dir"),
		Mods:          cmd.StringSlice("mods"),
		Outdated:      cmd.String("outdated"),
		Unsupported:   cmd.String("unsupported"),
		Workers:       cmd.Int("workers"),
		BaseURL:       cmd.String("base-url"),
		DeleteInvalid: cmd.Bool("delete-invalid"),
		DryRun:        cmd.Bool("dry-run"),
		SelfUpdate:    cmd.Bool("self-update"),
	}
	return config.Load(config.LoadOptions{
		Path:   cmd.String("config"),
		DotEnv: ".env",
		Flags:  flags,
	})
}

func runSync(ctx context.Context, cmd *cli.Command, dryRun bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.DryRun = cfg.DryRun || dryRun

	if cfg.SelfUpdate && !cfg.DryRun {
		// A failed update never blocks the sync.
		if st, err := selfUpdate(ctx); err != nil {
			logging.Warn("self-update failed", logging.Err(err))
		} else if st.Updated {
			fmt.Println(ui.ToneChanged.Message(fmt.Sprintf("beiwagen updated to %s, restarting", st.Latest)))
			if err := relaunch.Relaunch(st.Path, os.Args[1:], restartDelay); err != nil {
				logging.Warn("restart failed, continuing with the running version", logging.Err(err))
			}
		}
	}

	if info, err := os.Stat(cfg.ModsDir); err != nil || !info.IsDir() {
		return fmt.Errorf("client mods directory %s is not a directory", cfg.ModsDir)
	}

	t := newTracker()
	defer t.finish()

	httpClient := fetch.NewHTTPClient(fetch.DefaultClientOptions())

	scanner := &local.Scanner{
		Dir:           cfg.ModsDir,
		Workers:       cfg.Workers,
		DeleteInvalid: cfg.DeleteInvalid && !cfg.DryRun,
		Progress:      t.tick,
	}

	ropts := remote.DefaultOptions()
	ropts.Workers = cfg.Workers
	site := remote.NewClient(cfg.BaseURL, httpClient, ropts)
	site.Progress = t.tick

	fetcher := fetch.New(httpClient, fetch.Options{
		Retry:    fetch.DefaultRetryPolicy(),
		Progress: t.bytes,
	})

	syncer := sync.New(scanner, site, fetcher, cfg.Workers)
	result, runErr := syncer.Run(ctx, sync.Options{
		ModsDir:  cfg.ModsDir,
		Mods:     cfg.Mods,
		Policy:   cfg.Policy(),
		DryRun:   cfg.DryRun,
		Progress: t.event,
	})
	t.finish()

	if result != nil && (runErr == nil || errors.Is(runErr, sync.ErrSyncFailed)) {
		fmt.Print(renderResult(result))
	}
	return runErr
}

// selfUpdate installs the latest release over the running binary.
func selfUpdate(ctx context.Context) (selfupdate.Status, error) {
	checker := selfupdate.New(fetch.NewHTTPClient(fetch.DefaultClientOptions()))
	bar := progress.New(progress.Options{Max: -1, Description: "Updating beiwagen", Bytes: true})
	defer bar.Finish()
	checker.Progress = bar.Add64
	return checker.Update(ctx, Version)
}

var actionTones = map[sync.Action]ui.Tone{
	sync.ActionDownloaded: ui.ToneChanged,
	sync.ActionUpdated:    ui.ToneChanged,
	sync.ActionDeleted:    ui.ToneRemoved,
	sync.ActionSkipped:    ui.ToneKept,
	sync.ActionFailed:     ui.ToneFailed,
}

// renderResult formats the end-of-run report.
func renderResult(r *sync.Result) string {
	title := fmt.Sprintf("%s: %d installed, %d wanted", filepath.Clean(r.ModsDir), r.Installed, r.Wanted)
	if r.DryRun {
		title = "Plan for " + title
	}

	rows := make([]ui.ReportRow, 0, len(r.Items))
	for _, it := range r.Items {
		detail := string(it.Action)
		if r.DryRun && it.Action != sync.ActionSkipped {
			detail = "would be " + detail
		}
		if it.Reason != "" {
			detail += ", " + string(it.Reason)
		}
		if it.Outcome.Bytes > 0 {
			detail += ", " + ui.Bytes(it.Outcome.Bytes)
		}
		if it.Message != "" {
			detail += ", " + it.Message
		}
		if it.Error != nil {
			detail += ": " + it.Error.Error()
		}
		rows = append(rows, ui.ReportRow{
			Tone:   actionTones[it.Action],
			ID:     it.Resource.ID,
			Name:   it.Resource.DisplayName(),
			Detail: detail,
		})
	}

	var footer []string
	footer = append(footer, fmt.Sprintf("%d changed", r.TotalChanged()))
	if r.UpToDate > 0 {
		footer = append(footer, fmt.Sprintf("%d up to date", r.UpToDate))
	}
	if n := len(r.Failed()); n > 0 {
		footer = append(footer, fmt.Sprintf("%d failed", n))
	}
	if n := len(r.Skipped); n > 0 {
		footer = append(footer, fmt.Sprintf("%d not readable", n))
	}
	if b := r.TotalBytes(); b > 0 {
		footer = append(footer, ui.Bytes(b)+" downloaded")
	}

	return ui.Report{Title: title, Rows: rows, Footer: strings.Join(footer, ", ")}.Render()
}
