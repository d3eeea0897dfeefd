package relaunch

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestArgv(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"no args", nil, []string{"/opt/beiwagen"}},
		{"flags", []string{"-p", "/mods", "--self-update"}, []string{"/opt/beiwagen", "-p", "/mods", "--self-update"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := argv("/opt/beiwagen", tt.args); !slices.Equal(got, tt.want) {
				t.Errorf("argv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRelaunch_StartFailure(t *testing.T) {
	exited := false
	exit = func(int) { exited = true }
	t.Cleanup(func() { exit = osExit })

	err := Relaunch(filepath.Join(t.TempDir(), "missing"), nil, 0)
	if err == nil {
		t.Fatal("Relaunch() error = nil, want error for missing executable")
	}
	if exited {
		t.Error("Relaunch() exited after a failed start")
	}
}
