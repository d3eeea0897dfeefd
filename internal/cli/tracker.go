package cli

import (
	"fmt"
	gosync "sync"
	"sync/atomic"

	"github.com/rouhim/beiwagen/internal/progress"
	"github.com/rouhim/beiwagen/internal/sync"
	"github.com/rouhim/beiwagen/internal/ui"
)

var phaseLabels = map[sync.Phase]string{
	sync.PhaseLocal:    "Analysing local mods",
	sync.PhaseRemote:   "Fetching remote information",
	sync.PhaseDownload: "Downloading missing or updated",
	sync.PhaseRemove:   "Deleting obsolete mods",
}

// tracker shows one progress bar per sync phase.
type tracker struct {
	mu    gosync.Mutex
	bar   *progress.Bar
	phase sync.Phase
	total atomic.Int64
}

func newTracker() *tracker {
	return &tracker{}
}

// event switches bars when a phase starts and counts finished items.
func (t *tracker) event(e sync.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e.Item != nil {
		if t.bar != nil {
			t.bar.Add(1)
		}
		return
	}

	if t.bar != nil {
		t.bar.Finish()
	}
	limit := int64(e.Total)
	if limit == 0 {
		limit = -1
	}
	t.phase = e.Phase
	t.bar = progress.New(progress.Options{Max: limit, Description: phaseLabels[e.Phase]})
}

// tick counts a catalog entry.
func (t *tracker) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bar != nil && t.phase != sync.PhaseDownload && t.phase != sync.PhaseRemove {
		t.bar.Add(1)
	}
}

// bytes receives transfer progress from the fetcher.
func (t *tracker) bytes(_ uint64, delta int64) {
	n := t.total.Add(delta)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bar != nil && t.phase == sync.PhaseDownload {
		t.bar.Describe(fmt.Sprintf("%s (%s)", phaseLabels[sync.PhaseDownload], ui.Bytes(n)))
	}
}

func (t *tracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bar != nil {
		t.bar.Finish()
		t.bar = nil
	}
}
