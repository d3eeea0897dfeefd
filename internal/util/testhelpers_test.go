package util

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "beiwagen.toml")

	WriteFile(t, path, "mods = [\"1\"]\n")

	got, err := os.ReadFile(path) // #nosec G304 - test temp dir
	AssertNoError(t, err)
	AssertEqual(t, string(got), "mods = [\"1\"]\n")
}

func TestModArchive(t *testing.T) {
	data := ModArchive(t, 30373, 41, "Powertrain Kit")

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	AssertNoError(t, err)

	var names []string
	var info string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == "mod_info/powertrain_kit/info.json" {
			rc, err := f.Open()
			AssertNoError(t, err)
			b, err := io.ReadAll(rc)
			AssertNoError(t, err)
			_ = rc.Close()
			info = string(b)
		}
	}

	AssertEqual(t, len(names), 2)
	AssertEqual(t, names[0], "mod_info/powertrain_kit/info.json")
	AssertEqual(t, info, `{"current_version_id":41,"resource_id":30373,"title":"Powertrain Kit"}`)
}

func TestWriteModArchive(t *testing.T) {
	dir := t.TempDir()

	path := WriteModArchive(t, dir, "pickup.zip", 1, 2, "Pickup")

	AssertEqual(t, path, filepath.Join(dir, "pickup.zip"))
	zr, err := zip.OpenReader(path)
	AssertNoError(t, err)
	defer zr.Close()
	AssertEqual(t, zr.File[0].Name, "mod_info/pickup/info.json")
}

func TestGoldenFile(t *testing.T) {
	dir := t.TempDir()
	report := "Plan for /mods: 0 installed, 1 wanted\n"

	SetUpdateGolden(true)
	GoldenFile(t, dir, "plan", report)
	SetUpdateGolden(false)

	GoldenFile(t, dir, "plan", report)

	got, err := os.ReadFile(filepath.Join(dir, "plan.golden")) // #nosec G304 - test temp dir
	AssertNoError(t, err)
	AssertEqual(t, string(got), report)
}
