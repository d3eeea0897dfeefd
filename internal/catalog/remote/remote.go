// Package remote builds the catalog of desired resources by looking each
// one up on the BeamNG resource site.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"slices"
	"strconv"
	"strings"
	gosync "sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rouhim/beiwagen/internal/catalog"
	"github.com/rouhim/beiwagen/internal/logging"
	"github.com/rouhim/beiwagen/internal/model"
)

// DefaultBaseURL is the resource site.
const DefaultBaseURL = "https://www.beamng.com"

// ErrStatus is returned for a non-200 resource page.
var ErrStatus = errors.New("remote: unexpected status")

// Options configures a Client.
type Options struct {
	// RequestsPerSecond limits page lookups. Zero disables the limit.
	RequestsPerSecond float64

	// Burst is the limiter burst size.
	// Default: 1
	Burst int

	// Workers bounds concurrent lookups in Build.
	// Default: runtime.NumCPU()
	Workers int
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{RequestsPerSecond: 4, Burst: 4, Workers: runtime.NumCPU()}
}

// Client looks resources up on the resource site.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
	Workers int

	// Progress is called once per looked up id, never concurrently.
	Progress func()
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL and a nil
// httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		if opts.Burst <= 0 {
			opts.Burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
		Limiter: limiter,
		Workers: opts.Workers,
	}
}

// PageURL returns the page describing resource id.
func (c *Client) PageURL(id uint64) string {
	return fmt.Sprintf("%s/resources/%d", c.BaseURL, id)
}

// DownloadURL returns the download link of a resource version.
func (c *Client) DownloadURL(id, version uint64) string {
	return fmt.Sprintf("%s/resources/%d/download?version=%d", c.BaseURL, id, version)
}

// Lookup fetches and parses the page of resource id.
func (c *Client) Lookup(ctx context.Context, id string) (model.Resource, error) {
	rid, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil || rid == 0 {
		return model.Resource{}, fmt.Errorf("%w: %q", catalog.ErrInvalidID, id)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return model.Resource{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(rid), nil)
	if err != nil {
		return model.Resource{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return model.Resource{}, fmt.Errorf("get resource page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.Resource{}, fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	r, err := Parse(resp.Body, rid)
	if err != nil {
		return model.Resource{}, err
	}
	r.DownloadURL = c.DownloadURL(rid, r.Version)
	return r, nil
}

// Build looks every id up and returns the catalog of the ones that parsed.
// Only a cancelled context stops it early.
func (c *Client) Build(ctx context.Context, ids []string) (model.Catalog, []*catalog.EntryError, error) {
	defer logging.Timer(ctx, "scan remote")()
	log := logging.WithContext(ctx)

	var (
		mu      gosync.Mutex
		found   []model.Resource
		skipped []*catalog.EntryError
	)

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ids {
		g.Go(func() error {
			r, err := c.Lookup(gctx, id)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			if c.Progress != nil {
				c.Progress()
			}
			if err != nil {
				log.Warn("resource lookup failed", logging.Name(id), logging.Err(err))
				skipped = append(skipped, &catalog.EntryError{Source: id, Err: err})
				return nil
			}
			found = append(found, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	slices.SortFunc(skipped, func(a, b *catalog.EntryError) int { return strings.Compare(a.Source, b.Source) })
	cat := model.NewCatalog(found...)
	log.Debug("remote catalog built", logging.Count(cat.Len()))
	return cat, skipped, nil
}

// Parse extracts a resource from its page. The DownloadURL is left empty.
func Parse(r io.Reader, id uint64) (model.Resource, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return model.Resource{}, fmt.Errorf("parse resource page: %w", err)
	}

	res := model.Resource{ID: id}

	title := first(doc, func(n *html.Node) bool { return n.DataAtom == atom.Title && childOf(n, atom.Head) })
	if title == nil {
		return model.Resource{}, fmt.Errorf("%w: title", catalog.ErrFieldMissing)
	}
	res.Name = ParseName(text(title))

	prefix := first(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Span && hasClass(n, "prefix") && childOf(n, atom.H1)
	})
	if prefix != nil {
		res.Prefix = strings.TrimSpace(text(prefix))
	}
	res.Category = model.ParseCategory(res.Prefix)

	tag, ok := parseTagID(doc)
	if !ok {
		return model.Resource{}, fmt.Errorf("%w: unique id", catalog.ErrFieldMissing)
	}
	res.TagID = tag

	version, ok := parseVersion(doc)
	if !ok {
		return model.Resource{}, fmt.Errorf("%w: version", catalog.ErrFieldMissing)
	}
	res.Version = version

	return res, nil
}

// ParseName reduces a page title like "Vehicles - Pessima AWD | BeamNG"
// to the resource name.
func ParseName(title string) string {
	name, _, _ := strings.Cut(title, "|")
	if _, after, ok := strings.Cut(name, " - "); ok {
		name = after
	}
	return strings.TrimSpace(name)
}

func parseTagID(doc *html.Node) (string, bool) {
	info := first(doc, func(n *html.Node) bool { return n.DataAtom == atom.Div && hasID(n, "resourceInfo") })
	if info == nil {
		return "", false
	}
	for _, dl := range find(info, is(atom.Dl)) {
		if !strings.Contains(text(dl), "Unique ID") {
			continue
		}
		if dd := first(dl, is(atom.Dd)); dd != nil {
			if v := strings.TrimSpace(text(dd)); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func parseVersion(doc *html.Node) (uint64, bool) {
	anchors := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.A && n.Parent != nil && n.Parent.DataAtom == atom.Label && hasClass(n.Parent, "downloadButton")
	})
	for _, a := range anchors {
		if !strings.Contains(text(a), ".zip") {
			continue
		}
		href, ok := attr(a, "href")
		if !ok {
			continue
		}
		if v, ok := versionParam(href); ok {
			return v, true
		}
	}
	return 0, false
}

// versionParam returns the integer value of the version query parameter.
func versionParam(href string) (uint64, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseUint(u.Query().Get("version"), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
