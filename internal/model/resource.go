// Package model defines the resource identity and version model shared by
// the catalog builders, the delta engine and the fetcher.
package model

import "fmt"

// Resource is one installable content archive.
//
// Identity is the ID alone. Use Equal rather than == to compare two
// resources; the other fields describe a particular observation of it.
type Resource struct {
	ID          uint64
	TagID       string
	Name        string
	Version     uint64
	Category    Category
	Prefix      string
	Filename    string
	DownloadURL string
}

// Equal reports whether r and other denote the same resource.
func (r Resource) Equal(other Resource) bool {
	return r.ID == other.ID
}

// Key returns the catalog key of the resource.
func (r Resource) Key() uint64 {
	return r.ID
}

// DisplayName returns the name, or the id when the name is unknown.
func (r Resource) DisplayName() string {
	if r.Name == "" {
		return fmt.Sprintf("#%d", r.ID)
	}
	return r.Name
}

func (r Resource) String() string {
	return fmt.Sprintf("[id=%d, tag_id=%s, name=%s, version=%d, category=%s, filename=%s, download_url=%s]",
		r.ID, r.TagID, r.Name, r.Version, r.Category, r.Filename, r.DownloadURL)
}
