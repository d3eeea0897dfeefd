// Package relaunch restarts the running executable with its original
// arguments, used after a self-update replaced the binary.
package relaunch

import (
	"fmt"
	"os"
	"time"

	"github.com/rouhim/beiwagen/internal/logging"
)

// exit ends the current process once its replacement runs.
var (
	osExit = os.Exit
	exit   = osExit
)

// Relaunch starts exe with args in place of the current process. On success
// it does not return.
func Relaunch(exe string, args []string, delay time.Duration) error {
	logging.Info("restarting", logging.Path(exe), logging.Duration(delay))
	if delay > 0 {
		time.Sleep(delay)
	}
	if err := start(exe, args); err != nil {
		return fmt.Errorf("restart %s: %w", exe, err)
	}
	exit(0)
	return nil
}

// argv returns the argument vector of the relaunched process.
func argv(exe string, args []string) []string {
	out := make([]string, 0, len(args)+1)
	out = append(out, exe)
	return append(out, args...)
}
