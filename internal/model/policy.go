package model

import "fmt"

// Policy holds the delta action for each special category.
type Policy struct {
	Outdated    DeltaAction
	Unsupported DeltaAction
}

// ActionFor returns the action configured for the category.
// CategoryNone is always ActionIgnore.
func (p Policy) ActionFor(c Category) DeltaAction {
	var a DeltaAction
	switch c {
	case CategoryOutdated:
		a = p.Outdated
	case CategoryUnsupported:
		a = p.Unsupported
	}
	if !a.IsValid() {
		return ActionIgnore
	}
	return a
}

// Suppresses reports whether resources of the category must not be downloaded.
func (p Policy) Suppresses(c Category) bool {
	a := p.ActionFor(c)
	return a == ActionSkip || a == ActionDelete
}

// Removes reports whether installed resources of the category must be deleted.
func (p Policy) Removes(c Category) bool {
	return p.ActionFor(c) == ActionDelete
}

func (p Policy) String() string {
	return fmt.Sprintf("outdated=%s unsupported=%s", p.ActionFor(CategoryOutdated), p.ActionFor(CategoryUnsupported))
}
