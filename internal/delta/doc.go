// Package delta decides what a synchronization pass has to do.
//
// Given the locally installed catalog, the remotely wanted catalog and a
// category policy, it computes the download set and the removal set:
//
//	d := delta.Compute(local, remote, policy)
//	for _, r := range d.Download {
//	    // fetch r
//	}
//	for _, r := range d.Remove {
//	    // delete r.Filename
//	}
//
// A remote resource is downloaded when it is missing locally or strictly
// newer than the local copy, unless its category action is skip or delete.
// A local resource is removed when it is no longer wanted at all, or when
// the remote side marks it with a category whose action is delete.
//
// Skip hides a resource from future downloads but leaves an installed copy
// alone. Delete does both: no download and removal of the installed copy.
//
// Everything here is pure. Results are ordered by id so two runs over the
// same catalogs produce identical output.
package delta
