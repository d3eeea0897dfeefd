package e2e

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// Resource is a resource served by the fake site.
type Resource struct {
	ID       uint64
	Title    string
	Prefix   string
	Tag      string
	Version  uint64
	Filename string
	// Status overrides the download response when non-zero.
	Status int
}

// Site imitates the resource site: a page per resource and a download
// endpoint that names the archive in Content-Disposition.
type Site struct {
	*httptest.Server

	t         *testing.T
	mu        sync.Mutex
	resources map[uint64]Resource
	downloads map[uint64]int
}

// NewSite starts a fake resource site that is closed with the test.
func NewSite(t *testing.T) *Site {
	t.Helper()
	s := &Site{
		t:         t,
		resources: make(map[uint64]Resource),
		downloads: make(map[uint64]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /resources/{id}", s.page)
	mux.HandleFunc("GET /resources/{id}/download", s.download)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Add publishes r, replacing any earlier version.
func (s *Site) Add(r Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID] = r
}

// Downloads returns how many archive bodies were served for id.
func (s *Site) Downloads(id uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads[id]
}

func (s *Site) lookup(r *http.Request) (Resource, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return Resource{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.resources[id]
	return res, ok
}

func (s *Site) page(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	prefix := ""
	if res.Prefix != "" {
		prefix = `<span class="prefix">` + html.EscapeString(res.Prefix) + `</span>`
	}
	fmt.Fprintf(w, `<!DOCTYPE html>
<html><head><title>%s | BeamNG</title></head>
<body>
<h1>%s%s</h1>
<div id="resourceInfo"><dl><dt>Unique ID:</dt><dd>%s</dd></dl></div>
<label class="downloadButton"><a href="/resources/%d/download?version=%d">%s</a></label>
</body></html>`,
		html.EscapeString(res.Title), prefix, html.EscapeString(res.Title),
		html.EscapeString(res.Tag), res.ID, res.Version, html.EscapeString(res.Filename))
}

func (s *Site) download(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if res.Status != 0 && res.Status != http.StatusOK {
		w.WriteHeader(res.Status)
		return
	}

	body := Archive(s.t, res.ID, res.Version, res.Title)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if r.Method == http.MethodHead {
		return
	}

	s.mu.Lock()
	s.downloads[res.ID]++
	s.mu.Unlock()
	_, _ = w.Write(body)
}
