package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rouhim/beiwagen/internal/logging"
	"github.com/rouhim/beiwagen/internal/model"
)

// capture installs a logger writing into the returned buffer as default and
// restores the previous one when the test ends.
func capture(t *testing.T, opts logging.Options) *bytes.Buffer {
	t.Helper()
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })

	var buf bytes.Buffer
	opts.Output = &buf
	logging.SetDefault(logging.New(opts))
	return &buf
}

func TestOptionsFor(t *testing.T) {
	tests := []struct {
		name                 string
		verbose, debug, json bool
		wantLevel            slog.Level
		wantSource           bool
	}{
		{"quiet", false, false, false, logging.LevelWarn, false},
		{"verbose", true, false, false, logging.LevelInfo, false},
		{"debug", false, true, false, logging.LevelDebug, true},
		{"debug wins", true, true, true, logging.LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := logging.OptionsFor(tt.verbose, tt.debug, tt.json)
			if opts.Level != tt.wantLevel {
				t.Errorf("Level = %v, want %v", opts.Level, tt.wantLevel)
			}
			if opts.AddSource != tt.wantSource {
				t.Errorf("AddSource = %v, want %v", opts.AddSource, tt.wantSource)
			}
			if opts.JSON != tt.json {
				t.Errorf("JSON = %v, want %v", opts.JSON, tt.json)
			}
		})
	}
}

func TestNew_Formats(t *testing.T) {
	var text bytes.Buffer
	logging.New(logging.Options{Level: logging.LevelInfo, Output: &text}).
		Info("resource downloaded", logging.Path("pickup.zip"))
	if !strings.Contains(text.String(), "path=pickup.zip") {
		t.Errorf("text output = %q, want path=pickup.zip", text.String())
	}

	var js bytes.Buffer
	logging.New(logging.Options{Level: logging.LevelInfo, Output: &js, JSON: true}).
		Info("resource downloaded", logging.Count(3))
	var entry map[string]any
	if err := json.Unmarshal(js.Bytes(), &entry); err != nil {
		t.Fatalf("JSON output %q: %v", js.String(), err)
	}
	if entry["msg"] != "resource downloaded" || entry["count"] != float64(3) {
		t.Errorf("JSON entry = %v", entry)
	}
}

func TestDefault_WarnsOnly(t *testing.T) {
	buf := capture(t, logging.DefaultOptions())

	logging.Debug("probe sent")
	logging.Info("delta computed")
	logging.Warn("no auto-updates available")
	logging.Error("download failed")

	out := buf.String()
	for _, hidden := range []string{"probe sent", "delta computed"} {
		if strings.Contains(out, hidden) {
			t.Errorf("output contains %q below warn level:\n%s", hidden, out)
		}
	}
	for _, shown := range []string{"no auto-updates available", "download failed"} {
		if !strings.Contains(out, shown) {
			t.Errorf("output missing %q:\n%s", shown, out)
		}
	}
}

func TestForResource(t *testing.T) {
	buf := capture(t, logging.Options{Level: logging.LevelInfo})

	r := model.Resource{ID: 30373, Name: "Powertrain Kit", Version: 41}
	logging.ForResource(context.Background(), r).Info("resource updated")
	logging.ForResource(context.Background(), model.Resource{ID: 7}).Info("resource deleted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	for _, want := range []string{"resource=30373", `name="Powertrain Kit"`, "version=41"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
	if strings.Contains(lines[1], "name=") || strings.Contains(lines[1], "version=") {
		t.Errorf("line %q carries empty name or version", lines[1])
	}
}

func TestWithContext(t *testing.T) {
	capture(t, logging.DefaultOptions())

	if got := logging.WithContext(context.Background()); got != logging.Default() {
		t.Error("WithContext() without logger should return Default()")
	}

	var buf bytes.Buffer
	scoped := logging.New(logging.Options{Level: logging.LevelDebug, Output: &buf})
	ctx := logging.NewContext(context.Background(), scoped)

	if logging.FromContext(ctx) != scoped {
		t.Error("FromContext() did not return the attached logger")
	}
	logging.WithContext(ctx).Debug("scan started")
	if !strings.Contains(buf.String(), "scan started") {
		t.Errorf("context logger not used, output %q", buf.String())
	}
	if logging.FromContext(context.Background()) != nil {
		t.Error("FromContext() on a bare context should be nil")
	}
}

func TestErr(t *testing.T) {
	if attr := logging.Err(nil); !attr.Equal(slog.Attr{}) {
		t.Errorf("Err(nil) = %v, want empty attribute", attr)
	}

	attr := logging.Err(errors.New("connection reset"))
	if attr.Key != logging.KeyError || attr.Value.Any().(error).Error() != "connection reset" {
		t.Errorf("Err() = %v", attr)
	}
}

func TestTimer(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.NewContext(context.Background(),
		logging.New(logging.Options{Level: logging.LevelDebug, Output: &buf}))

	logging.Timer(ctx, "scan local")()

	out := buf.String()
	if !strings.Contains(out, `operation="scan local"`) || !strings.Contains(out, "duration=") {
		t.Errorf("Timer output = %q", out)
	}
}
