package ranking

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/recruiterlab/rankdesk/internal/gateway"
)

// ErrRankingInProgress is returned when a trigger is requested for a job
// that already has one in flight. Triggers are expensive; they must not be
// duplicated.
var ErrRankingInProgress = errors.New("ranking already in progress for this job")

// ErrNoJobSelected is returned when an operation needs an active job and
// none has been selected.
var ErrNoJobSelected = errors.New("no job selected")

// Orchestrator drives one job's ranking lifecycle: select job, load the
// cached snapshot, optionally trigger a fresh ranking, and apply
// disposition edits. Results always come from the active job's cache slot,
// so a late response for a previously selected job can never surface in
// the current view.
type Orchestrator struct {
	fetcher    *Fetcher
	reconciler *Reconciler
	cache      *Cache
	logger     *zap.Logger

	mu        sync.Mutex
	activeJob int
	selected  bool
}

func NewOrchestrator(gw *gateway.Client, log *zap.Logger) *Orchestrator {
	cache := NewCache()
	return &Orchestrator{
		fetcher:    NewFetcher(gw, cache, log),
		reconciler: NewReconciler(gw, cache, log),
		cache:      cache,
		logger:     log,
	}
}

// Select makes jobID the active job and returns its ranking snapshot,
// loading the backend's cached ranking when the slot is still unranked.
func (o *Orchestrator) Select(ctx context.Context, jobID int) *Set {
	o.mu.Lock()
	o.activeJob = jobID
	o.selected = true
	o.mu.Unlock()

	if o.cache.Phase(jobID) == Unranked {
		o.fetcher.LoadCached(ctx, jobID)
	}

	set, _ := o.cache.Snapshot(jobID)
	return set
}

// ActiveJob returns the currently selected job id, or false when none is.
func (o *Orchestrator) ActiveJob() (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.activeJob, o.selected
}

// Rank triggers a fresh ranking for the active job. At most one trigger
// may be outstanding per job; a second request is rejected while the first
// is in flight. The result is written to the slot of the job that was
// active when the trigger started, even if the selection has moved on by
// the time the response arrives.
func (o *Orchestrator) Rank(ctx context.Context) (*Set, error) {
	jobID, ok := o.ActiveJob()
	if !ok {
		return nil, ErrNoJobSelected
	}

	if o.cache.Phase(jobID) == Ranking {
		return nil, ErrRankingInProgress
	}

	return o.fetcher.Trigger(ctx, jobID)
}

// Results returns the active job's current snapshot with its fetch time.
func (o *Orchestrator) Results() (*Set, time.Time) {
	jobID, ok := o.ActiveJob()
	if !ok {
		return &Set{}, time.Time{}
	}
	return o.cache.Snapshot(jobID)
}

// SetStatus applies a disposition edit for a candidate of the active job.
func (o *Orchestrator) SetStatus(ctx context.Context, email string, status Status) error {
	jobID, ok := o.ActiveJob()
	if !ok {
		return ErrNoJobSelected
	}
	return o.reconciler.SetStatus(ctx, email, jobID, status)
}
