package model

import (
	"strings"
	"testing"
)

func TestResource_Equal(t *testing.T) {
	a := Resource{ID: 7, Name: "pessima", Version: 1, Filename: "a.zip"}
	b := Resource{ID: 7, Name: "renamed", Version: 9, Category: CategoryOutdated}
	c := Resource{ID: 8, Name: "pessima", Version: 1, Filename: "a.zip"}

	if !a.Equal(b) {
		t.Error("resources with the same id should be equal")
	}
	if a.Equal(c) {
		t.Error("resources with different ids should not be equal")
	}
}

func TestResource_DisplayName(t *testing.T) {
	if got := (Resource{ID: 3}).DisplayName(); got != "#3" {
		t.Errorf("DisplayName() = %q, want %q", got, "#3")
	}
	if got := (Resource{ID: 3, Name: "Pickup"}).DisplayName(); got != "Pickup" {
		t.Errorf("DisplayName() = %q, want %q", got, "Pickup")
	}
}

func TestResource_String(t *testing.T) {
	r := Resource{ID: 30373, TagID: "RX4ZU8Y6", Name: "powertrain kit", Version: 5, Category: CategoryNone}
	s := r.String()
	for _, want := range []string{"id=30373", "tag_id=RX4ZU8Y6", "version=5", "category=none"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog(
		Resource{ID: 3, Version: 1},
		Resource{ID: 1, Version: 1},
		Resource{ID: 3, Version: 2},
	)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if got, _ := c.Get(3); got.Version != 2 {
		t.Errorf("duplicate id should keep the last resource, got version %d", got.Version)
	}
	if !c.Has(1) || c.Has(2) {
		t.Error("Has() reported wrong membership")
	}

	ids := c.IDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("IDs() = %v, want [1 3]", ids)
	}

	resources := c.Resources()
	if resources[0].ID != 1 || resources[1].ID != 3 {
		t.Errorf("Resources() not ordered by id: %v", resources)
	}

	clone := c.Clone()
	clone.Add(Resource{ID: 9})
	if c.Has(9) {
		t.Error("Clone() should not share storage with the original")
	}
}
