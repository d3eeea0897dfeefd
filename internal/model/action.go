package model

import (
	"strings"
)

// DeltaAction is the per-category policy value applied during delta computation.
type DeltaAction string

const (
	// ActionIgnore gives the category no special treatment.
	ActionIgnore DeltaAction = "ignore"

	// ActionSkip never downloads resources of the category but keeps installed copies.
	ActionSkip DeltaAction = "skip"

	// ActionDelete never downloads resources of the category and removes installed copies.
	ActionDelete DeltaAction = "delete"
)

// ParseDeltaAction converts a policy string to a DeltaAction.
// "skip" and "delete" are recognized regardless of case; anything else,
// including the empty string, is ActionIgnore.
func ParseDeltaAction(s string) DeltaAction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip":
		return ActionSkip
	case "delete":
		return ActionDelete
	default:
		return ActionIgnore
	}
}

// IsValid returns true if the action is recognized.
func (a DeltaAction) IsValid() bool {
	switch a {
	case ActionIgnore, ActionSkip, ActionDelete:
		return true
	default:
		return false
	}
}

// AllDeltaActions returns all supported delta actions.
func AllDeltaActions() []DeltaAction {
	return []DeltaAction{ActionIgnore, ActionSkip, ActionDelete}
}

// String returns the string representation of the action.
func (a DeltaAction) String() string {
	return string(a)
}

// Description returns a human-readable description of the action.
func (a DeltaAction) Description() string {
	switch a {
	case ActionIgnore:
		return "Treat the resource like any other"
	case ActionSkip:
		return "Never download, keep installed copies"
	case ActionDelete:
		return "Never download and remove installed copies"
	default:
		return "Unknown action"
	}
}
