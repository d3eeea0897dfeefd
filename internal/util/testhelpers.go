package util

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// AssertNoError fails the test immediately when err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertEqual reports got != want.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// ZipArchive builds a zip holding entries, written in name order.
func ZipArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// ModArchive builds a mod archive whose mod_info descriptor names resource
// id at version.
func ModArchive(t *testing.T, id, version uint64, title string) []byte {
	t.Helper()

	info, err := json.Marshal(map[string]any{
		"resource_id":        id,
		"title":              title,
		"current_version_id": version,
	})
	if err != nil {
		t.Fatalf("failed to encode descriptor: %v", err)
	}

	slug := strings.ToLower(strings.ReplaceAll(title, " ", "_"))
	return ZipArchive(t, map[string]string{
		"mod_info/" + slug + "/info.json": string(info),
		"vehicles/" + slug + "/README.txt": title,
	})
}

// WriteModArchive writes ModArchive(id, version, title) to dir/name and
// returns the path.
func WriteModArchive(t *testing.T, dir, name string, id, version uint64, title string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, ModArchive(t, id, version, title), 0o600); err != nil {
		t.Fatalf("failed to write archive %s: %v", path, err)
	}
	return path
}

// GoldenFile compares got with testdataDir/name.golden, rewriting the file
// instead when golden updates are on.
func GoldenFile(t *testing.T, testdataDir, name, got string) {
	t.Helper()
	path := filepath.Join(testdataDir, name+".golden")

	if updateGolden {
		WriteFile(t, path, got)
		return
	}

	// #nosec G304 - path is built from the test's testdata directory
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden file %s: %v\nRun with -update to create it", path, err)
	}
	if got != string(want) {
		t.Errorf("%s mismatch\n--- got ---\n%s\n--- want ---\n%s", name, got, want)
	}
}

var updateGolden bool

// SetUpdateGolden turns golden file rewriting on, usually from a -update
// flag parsed in TestMain.
func SetUpdateGolden(update bool) {
	updateGolden = update
}
