package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rouhim/beiwagen/internal/logging"
	"github.com/rouhim/beiwagen/internal/model"
)

// State is a step of a single fetch.
type State string

const (
	StateProbed           State = "probed"
	StateFilenameResolved State = "filename-resolved"
	StateDownloading      State = "downloading"
	StateVerified         State = "verified"
	StateFailed           State = "failed"
)

// DefaultFileMode is applied to finalized files: owner and group read-write,
// nothing for others, never executable.
const DefaultFileMode os.FileMode = 0o660

// ProgressFunc receives byte deltas for a resource. A failed attempt reports
// a negative delta that cancels what it had reported.
type ProgressFunc func(id uint64, delta int64)

// Options configures a Fetcher.
type Options struct {
	Retry    RetryPolicy
	Matchers Matchers

	// FileMode is applied before a downloaded file is moved into place.
	// Default: DefaultFileMode
	FileMode os.FileMode

	// Progress is an optional byte counter.
	Progress ProgressFunc
}

// Outcome describes a finished fetch.
type Outcome struct {
	Filename string
	Path     string
	Bytes    int64
	Attempts int
	State    State
}

// Fetcher downloads and deletes resource archives.
type Fetcher struct {
	client *http.Client
	opts   Options
}

// New creates a Fetcher. A nil client uses NewHTTPClient(DefaultClientOptions()).
func New(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = NewHTTPClient(DefaultClientOptions())
	}
	if opts.Matchers.Disposition == nil && opts.Matchers.CDNZip == nil {
		opts.Matchers = DefaultMatchers()
	}
	if opts.FileMode == 0 {
		opts.FileMode = DefaultFileMode
	}
	opts.Retry = opts.Retry.withDefaults()

	return &Fetcher{client: client, opts: opts}
}

// Resolve probes the resource's download URL and returns the filename it
// will be stored under.
func (f *Fetcher) Resolve(ctx context.Context, r model.Resource) (string, error) {
	_, name, err := f.resolve(ctx, r)
	return name, err
}

func (f *Fetcher) resolve(ctx context.Context, r model.Resource) (*ProbeResult, string, error) {
	info, err := probe(ctx, f.client, r.DownloadURL)
	if err != nil {
		return nil, "", &Error{Kind: KindNetwork, ResourceID: r.ID, Op: "probe", Err: err}
	}

	name, ok := f.opts.Matchers.Filename(info.Disposition, info.FinalURL)
	if !ok {
		return info, "", &Error{
			Kind:       KindResolve,
			ResourceID: r.ID,
			Op:         "resolve",
			Err:        fmt.Errorf("%w: %s", ErrNoFilename, info.FinalURL),
		}
	}
	return info, name, nil
}

// Fetch downloads the resource into targetDir, retrying transient failures.
func (f *Fetcher) Fetch(ctx context.Context, r model.Resource, targetDir string) (Outcome, error) {
	log := logging.ForResource(ctx, r)

	var out Outcome
	attempts, err := f.opts.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			log.Debug("retrying fetch", slog.Int("attempt", attempt))
		}
		return f.fetchOnce(ctx, r, targetDir, &out)
	})
	out.Attempts = attempts

	if err != nil {
		out.State = StateFailed
		log.Debug("fetch failed", slog.Int("attempts", attempts), logging.Err(err))
		return out, err
	}

	log.Debug("fetch verified",
		logging.Path(out.Path),
		slog.Int64("bytes", out.Bytes),
		slog.Int("attempts", attempts),
	)
	return out, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, r model.Resource, targetDir string, out *Outcome) error {
	out.State = StateProbed
	info, name, err := f.resolve(ctx, r)
	if err != nil {
		return err
	}
	out.State = StateFilenameResolved
	out.Filename = name
	out.Path = filepath.Join(targetDir, name)

	body, length, err := f.get(ctx, r.DownloadURL)
	if err != nil {
		return &Error{Kind: KindNetwork, ResourceID: r.ID, Op: "download", Err: err}
	}
	defer body.Close()

	if info.ContentLength >= 0 {
		length = info.ContentLength
	}

	out.State = StateDownloading
	n, err := f.writeFile(body, r.ID, targetDir, name, length)
	out.Bytes = n
	if err != nil {
		return err
	}
	out.State = StateVerified
	return nil
}

func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if err := checkStatusCode(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

// writeFile streams body into a temporary file next to the final path and
// renames it into place once the size is verified. The temporary file is
// removed on every failure path.
func (f *Fetcher) writeFile(body io.Reader, id uint64, dir, name string, want int64) (written int64, err error) {
	tmp, err := os.CreateTemp(dir, "."+name+".part-*")
	if err != nil {
		return 0, &Error{Kind: KindFilesystem, ResourceID: id, Op: "create", Err: err}
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
		if f.opts.Progress != nil && written > 0 {
			f.opts.Progress(id, -written)
		}
	}()

	written, err = io.Copy(fileWriter{f: tmp}, &progressReader{r: body, id: id, fn: f.opts.Progress})
	if err != nil {
		if errors.Is(err, errWrite) {
			return written, &Error{Kind: KindFilesystem, ResourceID: id, Op: "write", Err: err}
		}
		return written, &Error{Kind: KindNetwork, ResourceID: id, Op: "download", Err: err}
	}

	if want >= 0 && written != want {
		return written, &Error{
			Kind:       KindIntegrity,
			ResourceID: id,
			Op:         "verify",
			Err:        fmt.Errorf("%w: got %d bytes, want %d", ErrIntegrity, written, want),
		}
	}

	if err := tmp.Chmod(f.opts.FileMode); err != nil {
		return written, &Error{Kind: KindFilesystem, ResourceID: id, Op: "chmod", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return written, &Error{Kind: KindFilesystem, ResourceID: id, Op: "close", Err: err}
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return written, &Error{Kind: KindFilesystem, ResourceID: id, Op: "rename", Err: err}
	}

	committed = true
	return written, nil
}

// Delete removes the resource's locally known file from targetDir.
func (f *Fetcher) Delete(ctx context.Context, r model.Resource, targetDir string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Kind: KindFilesystem, ResourceID: r.ID, Op: "delete", Err: err}
	}

	name := cleanName(r.Filename)
	if name == "" {
		return &Error{Kind: KindFilesystem, ResourceID: r.ID, Op: "delete", Err: errors.New("no local filename")}
	}

	p := filepath.Join(targetDir, name)
	if err := os.Remove(p); err != nil {
		return &Error{Kind: KindFilesystem, ResourceID: r.ID, Op: "delete", Err: err}
	}

	logging.WithContext(ctx).Debug("deleted resource", logging.Resource(r.ID), logging.Path(p))
	return nil
}

var errWrite = errors.New("write to temporary file")

// fileWriter tags write errors so they can be told apart from read errors
// after io.Copy.
type fileWriter struct {
	f *os.File
}

func (w fileWriter) Write(b []byte) (int, error) {
	n, err := w.f.Write(b)
	if err != nil {
		err = fmt.Errorf("%w: %w", errWrite, err)
	}
	return n, err
}

// progressReader reports bytes as they are read.
type progressReader struct {
	r  io.Reader
	id uint64
	fn ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil {
		p.fn(p.id, int64(n))
	}
	return n, err
}
