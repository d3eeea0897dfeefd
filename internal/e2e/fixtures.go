package e2e

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rouhim/beiwagen/internal/util"
)

// Fixture provides helpers for creating test fixtures in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	return f.write(relPath, []byte(content))
}

// WriteArchive writes a mod archive describing resource id at version.
func (f *Fixture) WriteArchive(relPath string, id, version uint64, title string) string {
	f.t.Helper()
	return f.write(relPath, Archive(f.t, id, version, title))
}

func (f *Fixture) write(relPath string, data []byte) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}

	return fullPath
}

// Path returns the full path for a relative path.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, relPath)
}

// Exists returns true if the file or directory exists.
func (f *Fixture) Exists(relPath string) bool {
	f.t.Helper()
	_, err := os.Stat(filepath.Join(f.baseDir, relPath))
	return err == nil
}

// Files returns the sorted names of the regular files in the base directory,
// ignoring the fetcher's temporary files.
func (f *Fixture) Files() []string {
	f.t.Helper()
	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		f.t.Fatalf("failed to read directory %s: %v", f.baseDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

// Archive builds a mod archive whose descriptor names resource id at version.
func Archive(t *testing.T, id, version uint64, title string) []byte {
	t.Helper()
	return util.ModArchive(t, id, version, title)
}
