// Package sync drives a synchronization run of a BeamNG mods directory.
//
// A run builds the catalog of installed resources and the catalog of wanted
// resources, computes the delta between them and applies it: missing or
// outdated archives are downloaded, unwanted ones deleted.
//
// # Usage
//
//	s := sync.New(scanner, remoteClient, fetcher, 4)
//	result, err := s.Run(ctx, sync.Options{
//	    ModsDir: "/srv/beammp/Resources/Client",
//	    Mods:    []string{"30373", "30414"},
//	    Policy:  cfg.Policy(),
//	})
//	fmt.Print(result.Summary())
//	if errors.Is(err, sync.ErrSyncFailed) {
//	    os.Exit(1)
//	}
//
// Downloads run before deletions, each on a bounded worker pool. A failing
// resource is recorded as ActionFailed and never stops the others.
//
// # Progress Reporting
//
// Options.Progress receives an Event when a phase starts (Phase and Total
// set) and when a resource is done (Item set):
//   - PhaseLocal and PhaseRemote while the catalogs are built
//   - PhaseDownload and PhaseRemove while the delta is applied
//
// # Dry Run
//
// Plan, or Run with Options.DryRun, stops after the delta and reports the
// actions that would be taken.
package sync
