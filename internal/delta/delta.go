package delta

import (
	"github.com/rouhim/beiwagen/internal/model"
)

// Reason explains a single decision.
type Reason string

const (
	// ReasonNew means the resource is wanted but not installed.
	ReasonNew Reason = "new"

	// ReasonUpdate means the remote version is newer than the installed one.
	ReasonUpdate Reason = "update"

	// ReasonUnwanted means an installed resource is no longer in the remote catalog.
	ReasonUnwanted Reason = "unwanted"

	// ReasonOutdated means the remote side marks the resource outdated and the policy deletes it.
	ReasonOutdated Reason = "outdated"

	// ReasonUnsupported means the remote side marks the resource unsupported and the policy deletes it.
	ReasonUnsupported Reason = "unsupported"

	// ReasonUpToDate means the installed version matches the remote one.
	ReasonUpToDate Reason = "up-to-date"

	// ReasonDowngradeRefused means the installed version is newer than the remote one.
	ReasonDowngradeRefused Reason = "downgrade-refused"

	// ReasonSkippedOutdated means an outdated resource is not downloaded.
	ReasonSkippedOutdated Reason = "skipped-outdated"

	// ReasonSkippedUnsupported means an unsupported resource is not downloaded.
	ReasonSkippedUnsupported Reason = "skipped-unsupported"
)

// Verdict is what happens to a resource.
type Verdict string

const (
	VerdictDownload Verdict = "download"
	VerdictRemove   Verdict = "remove"
	VerdictKeep     Verdict = "keep"
)

// Decision records the verdict for one resource id.
type Decision struct {
	Resource model.Resource
	Verdict  Verdict
	Reason   Reason
}

// Delta is the outcome of comparing two catalogs under a policy.
type Delta struct {
	Download  []model.Resource
	Remove    []model.Resource
	Decisions []Decision
}

// IsEmpty returns true when nothing needs to be downloaded or removed.
func (d Delta) IsEmpty() bool {
	return len(d.Download) == 0 && len(d.Remove) == 0
}

// ToDownload returns the remote resources that must be fetched.
//
// A remote resource qualifies when its id is absent locally or the local
// version is strictly lower. Equal or older remote versions never qualify,
// so there is no re-download and no downgrade. Resources whose category
// action is skip or delete never qualify.
func ToDownload(local, remote model.Catalog, policy model.Policy) []model.Resource {
	var out []model.Resource
	for _, r := range remote.Resources() {
		if _, ok := downloadReason(local, r); !ok {
			continue
		}
		if policy.Suppresses(r.Category) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ToRemove returns the local resources that must be deleted.
//
// A local resource qualifies when its id is absent from remote, regardless
// of policy, or when the remote entry's category action is delete. Category
// removal reads the remote category, so a resource must still be wanted to
// be removed as outdated or unsupported. The local record is returned so
// deletion uses the locally known filename.
func ToRemove(local, remote model.Catalog, policy model.Policy) []model.Resource {
	var out []model.Resource
	for _, l := range local.Resources() {
		if _, ok := removalReason(l, remote, policy); ok {
			out = append(out, l)
		}
	}
	return out
}

// Compute returns both sets together with a decision for every id seen in
// either catalog.
func Compute(local, remote model.Catalog, policy model.Policy) Delta {
	d := Delta{
		Download: ToDownload(local, remote, policy),
		Remove:   ToRemove(local, remote, policy),
	}

	for _, id := range unionIDs(local, remote) {
		d.Decisions = append(d.Decisions, decide(id, local, remote, policy))
	}
	return d
}

func decide(id uint64, local, remote model.Catalog, policy model.Policy) Decision {
	l, inLocal := local.Get(id)
	if inLocal {
		if reason, ok := removalReason(l, remote, policy); ok {
			return Decision{Resource: l, Verdict: VerdictRemove, Reason: reason}
		}
	}

	r := remote[id]
	if policy.Suppresses(r.Category) {
		reason := ReasonSkippedOutdated
		if r.Category == model.CategoryUnsupported {
			reason = ReasonSkippedUnsupported
		}
		return Decision{Resource: r, Verdict: VerdictKeep, Reason: reason}
	}

	if reason, ok := downloadReason(local, r); ok {
		return Decision{Resource: r, Verdict: VerdictDownload, Reason: reason}
	}
	if l.Version > r.Version {
		return Decision{Resource: l, Verdict: VerdictKeep, Reason: ReasonDowngradeRefused}
	}
	return Decision{Resource: l, Verdict: VerdictKeep, Reason: ReasonUpToDate}
}

// downloadReason ignores policy; it only compares versions.
func downloadReason(local model.Catalog, r model.Resource) (Reason, bool) {
	l, ok := local.Get(r.ID)
	if !ok {
		return ReasonNew, true
	}
	if l.Version < r.Version {
		return ReasonUpdate, true
	}
	return "", false
}

func removalReason(l model.Resource, remote model.Catalog, policy model.Policy) (Reason, bool) {
	r, ok := remote.Get(l.ID)
	if !ok {
		return ReasonUnwanted, true
	}
	if !policy.Removes(r.Category) {
		return "", false
	}
	switch r.Category {
	case model.CategoryOutdated:
		return ReasonOutdated, true
	case model.CategoryUnsupported:
		return ReasonUnsupported, true
	}
	return "", false
}

func unionIDs(local, remote model.Catalog) []uint64 {
	all := local.Clone()
	for id, r := range remote {
		all[id] = r
	}
	return all.IDs()
}
