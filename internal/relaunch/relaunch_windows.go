//go:build windows

package relaunch

import (
	"os"
	"os/exec"
	"syscall"
)

// createNewConsole is CREATE_NEW_CONSOLE from the process creation flags.
const createNewConsole = 0x00000010

// start spawns an independent process in a new console. The caller exits.
func start(exe string, args []string) error {
	// #nosec G204 - exe is the running executable
	cmd := exec.Command(exe, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewConsole}
	return cmd.Start()
}
