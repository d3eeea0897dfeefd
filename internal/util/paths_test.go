package util

import (
	"path/filepath"
	"testing"
)

func TestHomeDir(t *testing.T) {
	home := HomeDir()
	if home == "" {
		t.Error("HomeDir() returned empty string")
	}

	// Verify it's an absolute path
	if !filepath.IsAbs(home) {
		t.Errorf("HomeDir() returned relative path: %s", home)
	}
}

func TestExpandPath(t *testing.T) {
	home := HomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/BeamNG/mods", filepath.Join(home, "BeamNG", "mods")},
		{"/srv/beammp/Resources/Client", "/srv/beammp/Resources/Client"},
		{"mods", "mods"},
		{"~user/mods", "~user/mods"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecutableDir(t *testing.T) {
	dir := ExecutableDir()
	if dir == "" {
		t.Fatal("ExecutableDir() returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ExecutableDir() returned relative path: %s", dir)
	}
}
