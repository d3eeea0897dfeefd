//go:build unix

package relaunch

import (
	"os"
	"syscall"
)

// start replaces the process image; it only returns on failure.
func start(exe string, args []string) error {
	// #nosec G204 - exe is the running executable
	return syscall.Exec(exe, argv(exe, args), os.Environ())
}
