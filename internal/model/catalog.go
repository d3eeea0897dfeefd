package model

import (
	"slices"
)

// Catalog maps resource ids to resources. Two exist per run: the locally
// installed one and the remotely wanted one.
type Catalog map[uint64]Resource

// NewCatalog builds a catalog from resources. Later duplicates replace earlier ones.
func NewCatalog(resources ...Resource) Catalog {
	c := make(Catalog, len(resources))
	for _, r := range resources {
		c.Add(r)
	}
	return c
}

// Add inserts or replaces the resource under its id.
func (c Catalog) Add(r Resource) {
	c[r.Key()] = r
}

// Get returns the resource with the given id.
func (c Catalog) Get(id uint64) (Resource, bool) {
	r, ok := c[id]
	return r, ok
}

// Has reports whether the id is present.
func (c Catalog) Has(id uint64) bool {
	_, ok := c[id]
	return ok
}

// Len returns the number of resources.
func (c Catalog) Len() int {
	return len(c)
}

// IDs returns the ids in ascending order.
func (c Catalog) IDs() []uint64 {
	ids := make([]uint64, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Resources returns the resources ordered by id.
func (c Catalog) Resources() []Resource {
	out := make([]Resource, 0, len(c))
	for _, id := range c.IDs() {
		out = append(out, c[id])
	}
	return out
}

// Clone returns a shallow copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for id, r := range c {
		out[id] = r
	}
	return out
}
