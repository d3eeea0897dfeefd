// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a harness for running beiwagen commands against an isolated
// environment, a fake resource site and mods directory fixtures.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/rouhim/beiwagen/internal/cli"
)

// envKeys are the variables beiwagen reads. They are cleared for every
// harness so the developer's environment cannot leak into a test.
var envKeys = []string{
	"BW_CLIENT_MODS_DIR", "BW_MODS", "BW_OUTDATED", "BW_UNSUPPORTED",
	"BW_WORKERS", "BW_BASE_URL", "BW_DELETE_INVALID",
}

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, the mods directory and output capture.
type Harness struct {
	t       *testing.T
	homeDir string
	mods    *Fixture
}

// NewHarness creates a new E2E test harness with an isolated HOME and an
// empty client mods directory.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	homeDir := t.TempDir()
	h := &Harness{
		t:       t,
		homeDir: homeDir,
		mods:    NewFixture(t, t.TempDir()),
	}

	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	for _, k := range envKeys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}

	return h
}

// SetEnv sets an environment variable for CLI commands run through this harness.
// The environment will be restored after the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.t.Setenv(key, value)
}

// HomeDir returns the isolated home directory for this test harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// Mods returns the fixture for the client mods directory.
func (h *Harness) Mods() *Fixture {
	return h.mods
}

// ModsDir returns the client mods directory path.
func (h *Harness) ModsDir() string {
	return h.mods.Path("")
}

// Run executes a CLI command with the given arguments and captures the output.
// Colors are always disabled.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()
	return h.RunContext(context.Background(), args...)
}

// RunContext is Run with a caller supplied context.
func (h *Harness) RunContext(ctx context.Context, args ...string) *Result {
	h.t.Helper()

	if len(args) > 0 && args[0] == "beiwagen" {
		args = args[1:]
	}
	args = append([]string{"beiwagen", "--no-color"}, args...)

	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Read concurrently so output larger than the pipe buffer cannot block
	// the command.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(ctx, args)

	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdout = oldStdout

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}
