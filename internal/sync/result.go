package sync

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rouhim/beiwagen/internal/catalog"
	"github.com/rouhim/beiwagen/internal/delta"
	"github.com/rouhim/beiwagen/internal/fetch"
	"github.com/rouhim/beiwagen/internal/model"
)

// ErrSyncFailed is returned by Run when at least one resource failed.
var ErrSyncFailed = errors.New("sync failed")

// Action represents the action taken on a resource during sync.
type Action string

const (
	// ActionDownloaded indicates a resource that was not installed was downloaded.
	ActionDownloaded Action = "downloaded"

	// ActionUpdated indicates an installed resource was replaced by a newer version.
	ActionUpdated Action = "updated"

	// ActionDeleted indicates an installed resource was removed.
	ActionDeleted Action = "deleted"

	// ActionSkipped indicates a resource was left alone on purpose.
	ActionSkipped Action = "skipped"

	// ActionFailed indicates an error occurred processing the resource.
	ActionFailed Action = "failed"
)

// AllActions returns all actions in report order.
func AllActions() []Action {
	return []Action{ActionDownloaded, ActionUpdated, ActionDeleted, ActionSkipped, ActionFailed}
}

// ItemResult represents the outcome for a single resource.
type ItemResult struct {
	// Resource is the resource that was processed.
	Resource model.Resource

	// Action is the action that was taken, or would be taken in a dry run.
	Action Action

	// Reason is the delta decision behind the action.
	Reason delta.Reason

	// Outcome describes the transfer of a downloaded resource.
	Outcome fetch.Outcome

	// Error contains any error that occurred during processing.
	Error error

	// Message provides additional context about the action.
	Message string
}

// Success returns true if the resource was successfully processed.
func (ir *ItemResult) Success() bool {
	return ir.Action != ActionFailed
}

// Result contains the complete outcome of a sync run.
type Result struct {
	// ModsDir is the synchronized directory.
	ModsDir string

	// DryRun indicates if this was a dry run (no changes made).
	DryRun bool

	// Items contains the result for each resource acted on, sorted by id.
	Items []ItemResult

	// Installed and Wanted are the sizes of the local and remote catalogs.
	Installed int
	Wanted    int

	// UpToDate counts wanted resources that needed nothing.
	UpToDate int

	// Skipped lists archives and ids left out of the catalogs.
	Skipped []*catalog.EntryError
}

// Downloaded returns resources that were newly downloaded.
func (r *Result) Downloaded() []ItemResult {
	return r.filterByAction(ActionDownloaded)
}

// Updated returns resources that were updated.
func (r *Result) Updated() []ItemResult {
	return r.filterByAction(ActionUpdated)
}

// Deleted returns resources that were deleted.
func (r *Result) Deleted() []ItemResult {
	return r.filterByAction(ActionDeleted)
}

// SkippedItems returns resources that were skipped.
func (r *Result) SkippedItems() []ItemResult {
	return r.filterByAction(ActionSkipped)
}

// Failed returns resources that failed.
func (r *Result) Failed() []ItemResult {
	return r.filterByAction(ActionFailed)
}

// filterByAction returns items with the given action.
func (r *Result) filterByAction(action Action) []ItemResult {
	var filtered []ItemResult
	for _, ir := range r.Items {
		if ir.Action == action {
			filtered = append(filtered, ir)
		}
	}
	return filtered
}

// Success returns true if no resource failed.
func (r *Result) Success() bool {
	return len(r.Failed()) == 0
}

// Err returns an ErrSyncFailed error when a resource failed.
func (r *Result) Err() error {
	if n := len(r.Failed()); n > 0 {
		return fmt.Errorf("%w: %d of %d resources failed", ErrSyncFailed, n, len(r.Items))
	}
	return nil
}

// TotalChanged returns the number of resources downloaded, updated or deleted.
func (r *Result) TotalChanged() int {
	return len(r.Downloaded()) + len(r.Updated()) + len(r.Deleted())
}

// TotalBytes returns the bytes transferred.
func (r *Result) TotalBytes() int64 {
	var n int64
	for _, ir := range r.Items {
		n += ir.Outcome.Bytes
	}
	return n
}

func (r *Result) add(items ...ItemResult) {
	r.Items = append(r.Items, items...)
}

func (r *Result) sort() {
	order := make(map[Action]int)
	for i, a := range AllActions() {
		order[a] = i
	}
	slices.SortStableFunc(r.Items, func(a, b ItemResult) int {
		switch {
		case a.Resource.ID < b.Resource.ID:
			return -1
		case a.Resource.ID > b.Resource.ID:
			return 1
		default:
			return order[a.Action] - order[b.Action]
		}
	})
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	var sb strings.Builder

	if r.DryRun {
		sb.WriteString("Dry run - no changes made\n")
	}

	sb.WriteString(fmt.Sprintf("Synced %s: %d installed, %d wanted\n", r.ModsDir, r.Installed, r.Wanted))

	sb.WriteString(fmt.Sprintf("  Downloaded: %d\n", len(r.Downloaded())))
	sb.WriteString(fmt.Sprintf("  Updated:    %d\n", len(r.Updated())))
	sb.WriteString(fmt.Sprintf("  Deleted:    %d\n", len(r.Deleted())))
	sb.WriteString(fmt.Sprintf("  Skipped:    %d\n", len(r.SkippedItems())))
	sb.WriteString(fmt.Sprintf("  Up to date: %d\n", r.UpToDate))
	sb.WriteString(fmt.Sprintf("  Failed:     %d\n", len(r.Failed())))

	if len(r.Skipped) > 0 {
		sb.WriteString("\nNot in catalog:\n")
		for _, e := range r.Skipped {
			sb.WriteString(fmt.Sprintf("  - %v\n", e))
		}
	}

	if !r.Success() {
		sb.WriteString("\nErrors:\n")
		for _, f := range r.Failed() {
			sb.WriteString(fmt.Sprintf("  - %s: %v\n", f.Resource.DisplayName(), f.Error))
		}
	}

	return sb.String()
}
