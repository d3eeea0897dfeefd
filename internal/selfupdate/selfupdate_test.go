package selfupdate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsUpdate(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		want    bool
	}{
		{"1.2.0", "v1.3.0", true},
		{"v1.2.0", "1.2.1", true},
		{"v1.2.0", "v1.2.0", false},
		{"v1.3.0", "v1.2.9", false},
		{"v1.3.0-rc.1", "v1.3.0", true},
		{"dev", "v9.9.9", false},
		{"", "v1.0.0", false},
		{"v1.0.0", "latest", false},
	}

	for _, tt := range tests {
		if got := NeedsUpdate(tt.current, tt.latest); got != tt.want {
			t.Errorf("NeedsUpdate(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
		}
	}
}

func TestAssetName(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
	}{
		{"linux", "amd64", "beiwagen_linux_amd64"},
		{"darwin", "arm64", "beiwagen_darwin_arm64"},
		{"windows", "amd64", "beiwagen_windows_amd64.exe"},
	}

	for _, tt := range tests {
		if got := AssetName("beiwagen", tt.goos, tt.goarch); got != tt.want {
			t.Errorf("AssetName(%q, %q) = %q, want %q", tt.goos, tt.goarch, got, tt.want)
		}
	}
}

const binary = "#!/bin/sh\necho new\n"

// releaseServer serves a GitHub-like latest release for tag.
func releaseServer(t *testing.T, tag string, size int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/repos/rouhim/beammp-server-beiwagen/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		name := AssetName("beiwagen", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(w, `{"tag_name": %q, "assets": [
			{"name": "beiwagen_plan9_mips", "browser_download_url": "%s/nope", "size": 1},
			{"name": %q, "browser_download_url": "%s/asset", "size": %d}
		]}`, tag, srv.URL, name, srv.URL, size)
	})
	mux.HandleFunc("/asset", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(binary))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testChecker(t *testing.T, srv *httptest.Server) (*Checker, string) {
	t.Helper()
	exe := filepath.Join(t.TempDir(), "beiwagen")
	require.NoError(t, os.WriteFile(exe, []byte("old"), 0o755))

	c := New(srv.Client())
	c.APIBase = srv.URL
	c.Executable = exe
	return c, exe
}

func TestLatest(t *testing.T) {
	srv := releaseServer(t, "v1.4.0", int64(len(binary)))
	c, _ := testChecker(t, srv)

	rel, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", rel.TagName)
	assert.Len(t, rel.Assets, 2)

	_, ok := rel.Asset("beiwagen_plan9_mips")
	assert.True(t, ok)
	_, ok = rel.Asset("missing")
	assert.False(t, ok)
}

func TestLatest_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)
	c, _ := testChecker(t, srv)

	_, err := c.Latest(context.Background())
	assert.ErrorIs(t, err, ErrStatus)
}

func TestUpdate(t *testing.T) {
	srv := releaseServer(t, "v1.4.0", int64(len(binary)))

	t.Run("newer release is installed", func(t *testing.T) {
		c, exe := testChecker(t, srv)
		var got int64
		c.Progress = func(n int64) { got += n }

		st, err := c.Update(context.Background(), "v1.3.0")
		require.NoError(t, err)
		assert.True(t, st.Updated)
		assert.Equal(t, "v1.4.0", st.Latest)
		assert.Equal(t, exe, st.Path)
		assert.Equal(t, int64(len(binary)), got)

		data, err := os.ReadFile(exe)
		require.NoError(t, err)
		assert.Equal(t, binary, string(data))
		if runtime.GOOS != "windows" {
			info, err := os.Stat(exe)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
		}

		entries, err := os.ReadDir(filepath.Dir(exe))
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), ".update-")
		}
	})

	t.Run("up to date", func(t *testing.T) {
		c, exe := testChecker(t, srv)
		st, err := c.Update(context.Background(), "v1.4.0")
		require.NoError(t, err)
		assert.False(t, st.Updated)

		data, err := os.ReadFile(exe)
		require.NoError(t, err)
		assert.Equal(t, "old", string(data))
	})
}

func TestApply_Incomplete(t *testing.T) {
	srv := releaseServer(t, "v2.0.0", 1<<20)
	c, exe := testChecker(t, srv)

	_, err := c.Update(context.Background(), "v1.0.0")
	assert.ErrorIs(t, err, ErrIncomplete)

	data, err := os.ReadFile(exe)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestApply_NoAsset(t *testing.T) {
	c := New(nil)
	c.Executable = filepath.Join(t.TempDir(), "beiwagen")
	_, err := c.Apply(context.Background(), &Release{TagName: "v1.0.0"})
	assert.ErrorIs(t, err, ErrNoAsset)
}
