package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// Category classifies a resource by the prefix badge the remote site shows for it.
type Category string

const (
	// CategoryNone is any resource without a recognized prefix.
	CategoryNone Category = "none"

	// CategoryOutdated marks a resource the site flags as outdated.
	CategoryOutdated Category = "outdated"

	// CategoryUnsupported marks a resource the site flags as unsupported.
	CategoryUnsupported Category = "unsupported"
)

var categoryFolder = cases.Fold()

// ParseCategory interprets a free-text prefix label. Matching ignores case and
// surrounding whitespace; unknown labels map to CategoryNone.
func ParseCategory(label string) Category {
	switch categoryFolder.String(strings.TrimSpace(label)) {
	case "outdated":
		return CategoryOutdated
	case "unsupported":
		return CategoryUnsupported
	default:
		return CategoryNone
	}
}

// IsValid returns true if the category is recognized.
func (c Category) IsValid() bool {
	switch c {
	case CategoryNone, CategoryOutdated, CategoryUnsupported:
		return true
	default:
		return false
	}
}

// AllCategories returns every category.
func AllCategories() []Category {
	return []Category{CategoryNone, CategoryOutdated, CategoryUnsupported}
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}
