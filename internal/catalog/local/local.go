// Package local builds the catalog of installed resources by reading the
// descriptor embedded in every archive of the mods directory.
package local

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	gosync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/rouhim/beiwagen/internal/catalog"
	"github.com/rouhim/beiwagen/internal/logging"
	"github.com/rouhim/beiwagen/internal/model"
)

// descriptorPattern locates the descriptor inside an archive.
var descriptorPattern = regexp.MustCompile(`(?:^|/)mod_info/[^/]+/info\.json$`)

// Descriptor is the JSON document stored at mod_info/<tag>/info.json.
type Descriptor struct {
	ResourceID       *uint64 `json:"resource_id"`
	TagID            string  `json:"tagid"`
	Title            string  `json:"title"`
	CurrentVersionID *uint64 `json:"current_version_id"`
	PrefixTitle      string  `json:"prefix_title"`
	Filename         string  `json:"filename"`
}

// Resource converts the descriptor into a resource stored as file.
func (d Descriptor) Resource(file string) (model.Resource, error) {
	if d.ResourceID == nil || *d.ResourceID == 0 {
		return model.Resource{}, fmt.Errorf("%w: resource_id", catalog.ErrFieldMissing)
	}
	if d.CurrentVersionID == nil {
		return model.Resource{}, fmt.Errorf("%w: current_version_id", catalog.ErrFieldMissing)
	}
	return model.Resource{
		ID:       *d.ResourceID,
		TagID:    d.TagID,
		Name:     d.Title,
		Version:  *d.CurrentVersionID,
		Category: model.ParseCategory(d.PrefixTitle),
		Prefix:   d.PrefixTitle,
		Filename: file,
	}, nil
}

// Scanner reads every archive of a directory.
type Scanner struct {
	// Dir is the mods directory.
	Dir string

	// Workers bounds the number of archives read at once.
	// Default: runtime.NumCPU()
	Workers int

	// DeleteInvalid removes .zip files that are not readable zip archives.
	DeleteInvalid bool

	// Progress is called once per archive, never concurrently.
	Progress func()
}

// Archives lists the .zip files directly inside the directory, sorted.
func (s *Scanner) Archives() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read mods directory: %w", err)
	}

	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			continue
		}
		out = append(out, filepath.Join(s.Dir, e.Name()))
	}
	slices.Sort(out)
	return out, nil
}

// Scan builds the local catalog. Only an unreadable directory is an error;
// bad archives are returned as entry errors.
func (s *Scanner) Scan(ctx context.Context) (model.Catalog, []*catalog.EntryError, error) {
	defer logging.Timer(ctx, "scan local")()
	log := logging.WithContext(ctx)

	archives, err := s.Archives()
	if err != nil {
		return nil, nil, err
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu      gosync.Mutex
		found   []model.Resource
		skipped []*catalog.EntryError
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range archives {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := s.read(path)

			mu.Lock()
			defer mu.Unlock()
			if s.Progress != nil {
				s.Progress()
			}
			if err != nil {
				log.Warn("no auto-updates available", logging.Path(path), logging.Err(err))
				skipped = append(skipped, &catalog.EntryError{Source: path, Err: err})
				return nil
			}
			found = append(found, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Two archives of the same resource: keep the newer one so the
	// delta does not download what is already there.
	slices.SortFunc(found, func(a, b model.Resource) int {
		switch {
		case a.Version != b.Version:
			return cmpUint(a.Version, b.Version)
		default:
			return strings.Compare(a.Filename, b.Filename)
		}
	})
	c := model.NewCatalog(found...)
	for _, r := range found {
		kept := c[r.ID]
		if kept.Filename == r.Filename {
			continue
		}
		err := fmt.Errorf("%w: resource %d version %d superseded by %s", catalog.ErrDuplicate, r.ID, r.Version, kept.Filename)
		log.Warn("duplicate archive left out", logging.Path(r.Filename), logging.Err(err))
		skipped = append(skipped, &catalog.EntryError{Source: filepath.Join(s.Dir, r.Filename), Err: err})
	}

	slices.SortFunc(skipped, func(a, b *catalog.EntryError) int { return strings.Compare(a.Source, b.Source) })
	log.Debug("local catalog built", logging.Path(s.Dir), logging.Count(c.Len()))
	return c, skipped, nil
}

func (s *Scanner) read(path string) (model.Resource, error) {
	r, err := ReadArchive(path)
	if err == nil || !errors.Is(err, catalog.ErrInvalidArchive) || !s.DeleteInvalid {
		return r, err
	}
	if rmErr := os.Remove(path); rmErr != nil {
		return r, fmt.Errorf("%w (delete failed: %v)", err, rmErr)
	}
	return r, fmt.Errorf("%w (deleted)", err)
}

// ReadArchive extracts the resource metadata from the archive at path.
// The resource's Filename is the archive's own file name.
func ReadArchive(path string) (model.Resource, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return model.Resource{}, fmt.Errorf("%w: %v", catalog.ErrInvalidArchive, err)
	}
	defer zr.Close()

	var info *zip.File
	for _, f := range zr.File {
		if descriptorPattern.MatchString(f.Name) {
			info = f
			break
		}
	}
	if info == nil {
		return model.Resource{}, catalog.ErrDescriptorMissing
	}

	rc, err := info.Open()
	if err != nil {
		return model.Resource{}, fmt.Errorf("open %s: %w", info.Name, err)
	}
	defer rc.Close()

	d, err := DecodeDescriptor(rc)
	if err != nil {
		return model.Resource{}, err
	}
	return d.Resource(filepath.Base(path))
}

// DecodeDescriptor parses an info.json document.
func DecodeDescriptor(r io.Reader) (Descriptor, error) {
	var d Descriptor
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Descriptor{}, fmt.Errorf("decode info.json: %w", err)
	}
	return d, nil
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
