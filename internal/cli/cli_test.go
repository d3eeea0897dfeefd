package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rouhim/beiwagen/internal/logging"
	"github.com/rouhim/beiwagen/internal/sync"
	"github.com/rouhim/beiwagen/internal/util"
)

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	runErr := fn()

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close pipe writer: %v", err)
	}
	os.Stdout = old
	return <-done, runErr
}

// clearEnv unsets the BW_* variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BW_CLIENT_MODS_DIR", "BW_MODS", "BW_OUTDATED", "BW_UNSUPPORTED",
		"BW_WORKERS", "BW_BASE_URL", "BW_DELETE_INVALID",
	} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestVersionVariables(t *testing.T) {
	// Version should be set (even if to "dev")
	if Version == "" {
		t.Error("Version should not be empty")
	}

	// Commit and BuildDate should have defaults
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
}

func TestConfigureLogging(t *testing.T) {
	tests := map[string]struct {
		args      []string
		wantLevel slog.Level
	}{
		"no flags only warns": {
			args:      []string{"beiwagen", "version"},
			wantLevel: slog.LevelWarn,
		},
		"verbose flag enables info level": {
			args:      []string{"beiwagen", "--verbose", "version"},
			wantLevel: slog.LevelInfo,
		},
		"debug flag enables debug level": {
			args:      []string{"beiwagen", "--debug", "version"},
			wantLevel: slog.LevelDebug,
		},
		"debug flag implies verbose": {
			args:      []string{"beiwagen", "--verbose", "--debug", "version"},
			wantLevel: slog.LevelDebug,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// Reset logging to default before each test
			logging.SetDefault(logging.New(logging.DefaultOptions()))
			t.Cleanup(func() { logging.SetDefault(logging.New(logging.DefaultOptions())) })

			_, err := captureStdout(t, func() error {
				return Run(context.Background(), tt.args)
			})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			logger := logging.Default()
			for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
				got := logger.Enabled(context.Background(), level)
				if want := level >= tt.wantLevel; got != want {
					t.Errorf("Enabled(%v) = %v, want %v", level, got, want)
				}
			}
		})
	}
}

// siteServer imitates the resource site for resource 1 at version 2.
func siteServer(t *testing.T, downloadStatus int) *httptest.Server {
	t.Helper()
	archive := util.ModArchive(t, 1, 2, "Pickup")

	mux := http.NewServeMux()
	mux.HandleFunc("/resources/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Vehicles - Pickup | BeamNG</title></head><body>
			<h1>Pickup</h1>
			<div id="resourceInfo"><dl><dt>Unique ID:</dt><dd>pickup</dd></dl></div>
			<label class="downloadButton"><a href="/resources/1/download?version=2">pickup.zip</a></label>
			</body></html>`)
	})
	mux.HandleFunc("/resources/1/download", func(w http.ResponseWriter, r *http.Request) {
		if downloadStatus != http.StatusOK {
			w.WriteHeader(downloadStatus)
			return
		}
		http.Redirect(w, r, "/files/pickup.zip?token=abc", http.StatusFound)
	})
	mux.HandleFunc("/files/pickup.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(archive)))
		_, _ = w.Write(archive)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// modsDir returns a directory holding an archive of resource 9.
func modsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.zip"), util.ModArchive(t, 9, 1, "Mod 9"), 0o600); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}
	return dir
}

func TestSyncCommand(t *testing.T) {
	clearEnv(t)
	srv := siteServer(t, http.StatusOK)
	dir := modsDir(t)

	output, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"beiwagen", "--no-color", "sync", "-p", dir, "-m", "1", "--base-url", srv.URL,
		})
	})
	if err != nil {
		t.Fatalf("Run() error = %v\n%s", err, output)
	}

	if _, err := os.Stat(filepath.Join(dir, "pickup.zip")); err != nil {
		t.Errorf("pickup.zip not downloaded: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.zip")); !os.IsNotExist(err) {
		t.Errorf("old.zip should be deleted, stat error = %v", err)
	}

	for _, want := range []string{"Pickup (downloaded, new", "Mod 9 (deleted, unwanted)", "2 changed"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
}

func TestSyncIsDefaultAction(t *testing.T) {
	clearEnv(t)
	srv := siteServer(t, http.StatusOK)
	dir := modsDir(t)
	t.Setenv("BW_CLIENT_MODS_DIR", dir)
	t.Setenv("BW_MODS", "https://www.beamng.com/resources/pickup.1/")

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{"beiwagen", "--no-color", "--base-url", srv.URL})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pickup.zip")); err != nil {
		t.Errorf("pickup.zip not downloaded: %v", err)
	}
}

func TestPlanCommand(t *testing.T) {
	clearEnv(t)
	srv := siteServer(t, http.StatusOK)
	dir := modsDir(t)

	output, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"beiwagen", "--no-color", "plan", "-p", dir, "-m", "1", "--base-url", srv.URL,
		})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "old.zip" {
		t.Errorf("plan changed the directory: %v", entries)
	}
	for _, want := range []string{"Plan for", "would be downloaded", "would be deleted"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
}

func TestSyncCommand_Failure(t *testing.T) {
	clearEnv(t)
	srv := siteServer(t, http.StatusNotFound)
	dir := t.TempDir()

	output, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{
			"beiwagen", "--no-color", "sync", "-p", dir, "-m", "1", "--base-url", srv.URL,
		})
	})
	if err == nil {
		t.Fatal("Run() error = nil, want ErrSyncFailed")
	}
	if !strings.Contains(err.Error(), sync.ErrSyncFailed.Error()) {
		t.Errorf("Run() error = %v, want ErrSyncFailed", err)
	}
	if !strings.Contains(output, "1 failed") {
		t.Errorf("output missing failure count\n%s", output)
	}
}

func TestSyncCommand_InvalidConfig(t *testing.T) {
	clearEnv(t)

	tests := map[string]struct {
		args    []string
		wantErr string
	}{
		"no mods": {
			args:    []string{"beiwagen", "sync", "-p", t.TempDir()},
			wantErr: "at least one mod is required",
		},
		"no directory": {
			args:    []string{"beiwagen", "sync", "-m", "1"},
			wantErr: "client mods directory is required",
		},
		"bad mod": {
			args:    []string{"beiwagen", "sync", "-p", t.TempDir(), "-m", "pickup"},
			wantErr: "invalid mod value",
		},
		"missing directory": {
			args:    []string{"beiwagen", "sync", "-p", filepath.Join(t.TempDir(), "nope"), "-m", "1"},
			wantErr: "is not a directory",
		},
		"missing config file": {
			args:    []string{"beiwagen", "sync", "--config", filepath.Join(t.TempDir(), "nope.toml")},
			wantErr: "no such file",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := captureStdout(t, func() error {
				return Run(context.Background(), tt.args)
			})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Run() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigCommand(t *testing.T) {
	clearEnv(t)
	t.Setenv("BW_OUTDATED", "delete")

	output, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{"beiwagen", "config", "-p", "/mods", "-m", "5,6", "--outdated", "skip"})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, want := range []string{`client_mods_dir = "/mods"`, `outdated = "delete"`, `"5"`, `"6"`} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
}

func TestConfigCommand_Output(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "beiwagen.yaml")

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{"beiwagen", "--no-color", "config", "-p", "/mods", "-m", "5", "-o", path})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304 - test temp directory
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "client_mods_dir: /mods") {
		t.Errorf("unexpected config file:\n%s", data)
	}
}
