package sync

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	gosync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/rouhim/beiwagen/internal/catalog"
	"github.com/rouhim/beiwagen/internal/delta"
	"github.com/rouhim/beiwagen/internal/fetch"
	"github.com/rouhim/beiwagen/internal/logging"
	"github.com/rouhim/beiwagen/internal/model"
)

// LocalSource builds the catalog of installed resources.
type LocalSource interface {
	Scan(ctx context.Context) (model.Catalog, []*catalog.EntryError, error)
}

// RemoteSource builds the catalog of wanted resources.
type RemoteSource interface {
	Build(ctx context.Context, ids []string) (model.Catalog, []*catalog.EntryError, error)
}

// Operator transfers and removes resource archives.
type Operator interface {
	Fetch(ctx context.Context, r model.Resource, targetDir string) (fetch.Outcome, error)
	Delete(ctx context.Context, r model.Resource, targetDir string) error
}

// Phase names a stage of a run.
type Phase string

const (
	PhaseLocal    Phase = "local"
	PhaseRemote   Phase = "remote"
	PhaseDownload Phase = "download"
	PhaseRemove   Phase = "remove"
)

// Event reports progress. Either Phase and Total are set when a stage
// starts, or Item when a resource is done.
type Event struct {
	Phase Phase
	Total int
	Item  *ItemResult
}

// Options configures a run.
type Options struct {
	// ModsDir is the directory kept in sync.
	ModsDir string

	// Mods lists the wanted resource ids.
	Mods []string

	// Policy decides what happens to outdated and unsupported resources.
	Policy model.Policy

	// DryRun computes and reports the plan without touching the directory.
	DryRun bool

	// Progress receives events, never concurrently.
	Progress func(Event)
}

// Syncer drives a synchronization run.
type Syncer struct {
	Local   LocalSource
	Remote  RemoteSource
	Fetcher Operator

	// Workers bounds parallel downloads and deletions.
	// Default: runtime.NumCPU()
	Workers int
}

// New creates a Syncer.
func New(local LocalSource, remote RemoteSource, op Operator, workers int) *Syncer {
	return &Syncer{Local: local, Remote: remote, Fetcher: op, Workers: workers}
}

// Plan computes what Run would do without touching the directory.
func (s *Syncer) Plan(ctx context.Context, opts Options) (*Result, error) {
	opts.DryRun = true
	return s.Run(ctx, opts)
}

// Run synchronizes the mods directory with the wanted resources. A failing
// resource never stops the others; the run then returns its Result together
// with an ErrSyncFailed error.
func (s *Syncer) Run(ctx context.Context, opts Options) (*Result, error) {
	defer logging.Timer(ctx, "sync")()
	log := logging.WithContext(ctx)

	log.Debug("starting sync operation",
		logging.Path(opts.ModsDir),
		logging.Operation("sync"),
		logging.Count(len(opts.Mods)),
		slog.String("outdated", string(opts.Policy.Outdated)),
		slog.String("unsupported", string(opts.Policy.Unsupported)),
		slog.Bool("dry_run", opts.DryRun),
	)

	emit := s.emitter(opts.Progress)
	result := &Result{ModsDir: opts.ModsDir, DryRun: opts.DryRun}

	emit(Event{Phase: PhaseLocal})
	local, skipped, err := s.Local.Scan(ctx)
	if err != nil {
		return result, fmt.Errorf("scan local resources: %w", err)
	}
	result.Skipped = append(result.Skipped, skipped...)
	result.Installed = local.Len()

	emit(Event{Phase: PhaseRemote, Total: len(opts.Mods)})
	remote, skipped, err := s.Remote.Build(ctx, opts.Mods)
	if err != nil {
		return result, fmt.Errorf("look up wanted resources: %w", err)
	}
	result.Skipped = append(result.Skipped, skipped...)
	result.Wanted = remote.Len()

	d := delta.Compute(local, remote, opts.Policy)
	// The engine treats every local resource missing from the remote catalog
	// as unwanted. A requested id whose lookup failed is overridden here and
	// its installed archive kept.
	remove, held := holdUnresolved(d.Remove, opts.Mods, remote)
	result.add(held...)
	for _, dec := range d.Decisions {
		switch {
		case dec.Verdict != delta.VerdictKeep:
		case dec.Reason == delta.ReasonUpToDate:
			result.UpToDate++
		case dec.Reason == delta.ReasonSkippedOutdated,
			dec.Reason == delta.ReasonSkippedUnsupported,
			dec.Reason == delta.ReasonDowngradeRefused:
			result.add(ItemResult{Resource: dec.Resource, Action: ActionSkipped, Reason: dec.Reason})
		}
	}

	log.Info("delta computed",
		slog.Int("download", len(d.Download)),
		slog.Int("remove", len(remove)),
		slog.Int("up_to_date", result.UpToDate),
	)

	reasons := make(map[uint64]delta.Reason, len(d.Decisions))
	for _, dec := range d.Decisions {
		reasons[dec.Resource.ID] = dec.Reason
	}

	if opts.DryRun {
		for _, r := range d.Download {
			result.add(ItemResult{Resource: r, Action: downloadAction(local, r), Reason: reasons[r.ID]})
		}
		for _, r := range remove {
			result.add(ItemResult{Resource: r, Action: ActionDeleted, Reason: reasons[r.ID]})
		}
		result.sort()
		return result, nil
	}

	emit(Event{Phase: PhaseDownload, Total: len(d.Download)})
	result.add(s.each(ctx, d.Download, emit, func(ctx context.Context, r model.Resource) ItemResult {
		return s.download(ctx, local, r, reasons[r.ID], opts.ModsDir)
	})...)

	emit(Event{Phase: PhaseRemove, Total: len(remove)})
	result.add(s.each(ctx, remove, emit, func(ctx context.Context, r model.Resource) ItemResult {
		return s.remove(ctx, r, reasons[r.ID], opts.ModsDir)
	})...)

	result.sort()
	log.Info("sync finished",
		slog.Int("changed", result.TotalChanged()),
		slog.Int("failed", len(result.Failed())),
	)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, result.Err()
}

// each runs fn for every resource on the worker pool and collects the
// results. Failures are part of the results and never cancel siblings.
func (s *Syncer) each(ctx context.Context, rs []model.Resource, emit func(Event), fn func(context.Context, model.Resource) ItemResult) []ItemResult {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu  gosync.Mutex
		out = make([]ItemResult, 0, len(rs))
	)

	var g errgroup.Group
	g.SetLimit(workers)
	for _, r := range rs {
		g.Go(func() error {
			var ir ItemResult
			if err := ctx.Err(); err != nil {
				ir = ItemResult{Resource: r, Action: ActionFailed, Error: err}
			} else {
				ir = fn(ctx, r)
			}

			mu.Lock()
			defer mu.Unlock()
			out = append(out, ir)
			emit(Event{Item: &ir})
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Syncer) download(ctx context.Context, local model.Catalog, r model.Resource, reason delta.Reason, dir string) ItemResult {
	log := logging.ForResource(ctx, r)
	ir := ItemResult{Resource: r, Action: downloadAction(local, r), Reason: reason}

	out, err := s.Fetcher.Fetch(ctx, r, dir)
	ir.Outcome = out
	if err != nil {
		log.Error("download failed", logging.Err(err))
		ir.Action = ActionFailed
		ir.Error = err
		return ir
	}
	ir.Resource.Filename = out.Filename
	log.Info("resource "+string(ir.Action), logging.Path(out.Path), slog.Int64("bytes", out.Bytes))

	// An update stored under a new name leaves the old archive behind.
	old, installed := local.Get(r.ID)
	if installed && old.Filename != "" && old.Filename != out.Filename {
		if err := s.Fetcher.Delete(ctx, old, dir); err != nil {
			log.Warn("failed to remove superseded archive", logging.Path(old.Filename), logging.Err(err))
			ir.Message = "superseded " + old.Filename + " not removed"
		} else {
			ir.Message = "replaced " + old.Filename
		}
	}
	return ir
}

func (s *Syncer) remove(ctx context.Context, r model.Resource, reason delta.Reason, dir string) ItemResult {
	log := logging.ForResource(ctx, r)
	ir := ItemResult{Resource: r, Action: ActionDeleted, Reason: reason}

	if err := s.Fetcher.Delete(ctx, r, dir); err != nil {
		log.Error("delete failed", logging.Err(err))
		ir.Action = ActionFailed
		ir.Error = err
		return ir
	}
	log.Info("resource deleted", logging.Path(r.Filename), slog.String("reason", string(reason)))
	return ir
}

func (s *Syncer) emitter(fn func(Event)) func(Event) {
	if fn == nil {
		return func(Event) {}
	}
	var mu gosync.Mutex
	return func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		fn(e)
	}
}

func downloadAction(local model.Catalog, r model.Resource) Action {
	if local.Has(r.ID) {
		return ActionUpdated
	}
	return ActionDownloaded
}

// holdUnresolved keeps resources that were asked for but could not be
// looked up: without remote data they would otherwise count as unwanted.
func holdUnresolved(remove []model.Resource, wanted []string, remote model.Catalog) ([]model.Resource, []ItemResult) {
	asked := make(map[uint64]bool, len(wanted))
	for _, v := range wanted {
		if id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil {
			asked[id] = true
		}
	}

	var (
		keep []model.Resource
		held []ItemResult
	)
	for _, r := range remove {
		if !remote.Has(r.ID) && asked[r.ID] {
			held = append(held, ItemResult{
				Resource: r,
				Action:   ActionSkipped,
				Reason:   delta.ReasonUnwanted,
				Message:  "lookup failed, kept installed version",
			})
			continue
		}
		keep = append(keep, r)
	}
	return keep, held
}
