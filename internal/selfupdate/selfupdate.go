// Package selfupdate replaces the running binary with the latest GitHub
// release.
package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/rouhim/beiwagen/internal/logging"
)

// Defaults for the published releases.
const (
	DefaultOwner   = "rouhim"
	DefaultRepo    = "beammp-server-beiwagen"
	DefaultBinary  = "beiwagen"
	DefaultAPIBase = "https://api.github.com"
)

// Common errors.
var (
	ErrNoAsset       = errors.New("selfupdate: no asset for this platform")
	ErrStatus        = errors.New("selfupdate: unexpected status")
	ErrIncomplete    = errors.New("selfupdate: incomplete download")
	ErrInvalidTarget = errors.New("selfupdate: cannot locate executable")
)

// Release is the subset of a GitHub release used here.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
}

// Asset is a release file.
type Asset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
	Size int64  `json:"size"`
}

// Asset returns the asset called name.
func (r *Release) Asset(name string) (Asset, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}

// AssetName returns the release asset built for goos/goarch, e.g.
// beiwagen_linux_amd64 or beiwagen_windows_amd64.exe.
func AssetName(binary, goos, goarch string) string {
	name := fmt.Sprintf("%s_%s_%s", binary, goos, goarch)
	if goos == "windows" {
		name += ".exe"
	}
	return name
}

// NeedsUpdate reports whether latest is a newer semantic version than
// current. Development builds never update.
func NeedsUpdate(current, latest string) bool {
	c, l := canonical(current), canonical(latest)
	if !semver.IsValid(c) || !semver.IsValid(l) {
		return false
	}
	return semver.Compare(l, c) > 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Status is the outcome of Update.
type Status struct {
	Current string
	Latest  string
	Updated bool
	Path    string
}

// Checker looks up and installs releases.
type Checker struct {
	Owner   string
	Repo    string
	Binary  string
	APIBase string
	HTTP    *http.Client

	// Executable is the file replaced by Apply.
	// Default: os.Executable()
	Executable string

	// Progress receives downloaded byte counts.
	Progress func(n int64)
}

// New creates a Checker for the published releases.
func New(client *http.Client) *Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Checker{
		Owner:   DefaultOwner,
		Repo:    DefaultRepo,
		Binary:  DefaultBinary,
		APIBase: DefaultAPIBase,
		HTTP:    client,
	}
}

// Latest fetches the latest release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", strings.TrimRight(c.APIBase, "/"), c.Owner, c.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	return &rel, nil
}

// Update installs the latest release when it is newer than current.
func (c *Checker) Update(ctx context.Context, current string) (Status, error) {
	log := logging.WithContext(ctx)
	st := Status{Current: current}

	rel, err := c.Latest(ctx)
	if err != nil {
		return st, err
	}
	st.Latest = rel.TagName

	if !NeedsUpdate(current, rel.TagName) {
		log.Debug("binary is up to date", "current", current, "latest", rel.TagName)
		return st, nil
	}

	path, err := c.Apply(ctx, rel)
	if err != nil {
		return st, err
	}
	st.Updated = true
	st.Path = path
	log.Info("binary updated", "from", current, "to", rel.TagName, logging.Path(path))
	return st, nil
}

// Apply downloads the asset for this platform and moves it over the
// executable. It returns the replaced path.
func (c *Checker) Apply(ctx context.Context, rel *Release) (string, error) {
	name := AssetName(c.Binary, runtime.GOOS, runtime.GOARCH)
	asset, ok := rel.Asset(name)
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrNoAsset, name, rel.TagName)
	}

	exe, err := c.executable()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(exe), "."+filepath.Base(exe)+".update-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	var body io.Reader = resp.Body
	if c.Progress != nil {
		body = &countingReader{r: body, fn: c.Progress}
	}
	n, err := io.Copy(tmp, body)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	if asset.Size > 0 && n != asset.Size {
		return "", fmt.Errorf("%w: got %d of %d bytes", ErrIncomplete, n, asset.Size)
	}

	// #nosec G302 - the file is an executable
	if err := tmp.Chmod(0o755); err != nil {
		return "", fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close: %w", err)
	}

	if err := replace(tmpName, exe); err != nil {
		return "", err
	}
	return exe, nil
}

func (c *Checker) executable() (string, error) {
	if c.Executable != "" {
		return c.Executable, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}

// replace moves src over dst. A running Windows executable cannot be
// overwritten but can be renamed, so it is moved aside first.
func replace(src, dst string) error {
	if runtime.GOOS == "windows" {
		old := dst + ".old"
		_ = os.Remove(old)
		if err := os.Rename(dst, old); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("move old executable: %w", err)
		}
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("install update: %w", err)
	}
	return nil
}

type countingReader struct {
	r  io.Reader
	fn func(int64)
}

func (cr *countingReader) Read(b []byte) (int, error) {
	n, err := cr.r.Read(b)
	if n > 0 {
		cr.fn(int64(n))
	}
	return n, err
}
