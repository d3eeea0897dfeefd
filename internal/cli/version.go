package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/rouhim/beiwagen/internal/selfupdate"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show the beiwagen version and the release asset it updates from",
		Action: func(context.Context, *cli.Command) error {
			fmt.Print(versionInfo())
			return nil
		},
	}
}

// versionInfo lists the build and the release asset `update` would fetch.
func versionInfo() string {
	asset := selfupdate.AssetName(selfupdate.DefaultBinary, runtime.GOOS, runtime.GOARCH)
	return fmt.Sprintf("beiwagen version %s\n  commit: %s\n  built: %s\n  go: %s\n  release: %s/%s %s\n",
		Version, Commit, BuildDate, runtime.Version(),
		selfupdate.DefaultOwner, selfupdate.DefaultRepo, asset)
}
