package ranking

import (
	"sync"
	"time"
)

// Phase is the lifecycle of one job's ranking slot.
type Phase int

const (
	// Unranked means no snapshot has ever been loaded for the job.
	Unranked Phase = iota
	// Ranking means a trigger is in flight; the previous snapshot, if any,
	// is still held.
	Ranking
	// Ranked means the slot holds a complete snapshot.
	Ranked
)

func (p Phase) String() string {
	switch p {
	case Ranking:
		return "ranking"
	case Ranked:
		return "ranked"
	default:
		return "unranked"
	}
}

type entry struct {
	phase     Phase
	set       *Set
	fetchedAt time.Time
}

// Cache holds the latest ranking snapshot per job. Slots are keyed by job
// id, so a response that arrives after the user has moved on to another job
// is written to its own slot and never bleeds into the current view.
//
// A snapshot is always replaced wholesale; the only in-place mutation is a
// single row's disposition status.
type Cache struct {
	mu   sync.RWMutex
	jobs map[int]*entry
}

func NewCache() *Cache {
	return &Cache{jobs: make(map[int]*entry)}
}

func (c *Cache) Phase(jobID int) Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.jobs[jobID]
	if !ok {
		return Unranked
	}
	return e.phase
}

// Snapshot returns the job's cached set and its fetch time. Callers must
// treat the returned set as read-only; the empty set stands in for a slot
// that was never ranked.
func (c *Cache) Snapshot(jobID int) (*Set, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.jobs[jobID]
	if !ok || e.set == nil {
		return &Set{}, time.Time{}
	}
	return e.set, e.fetchedAt
}

// Store records a snapshot read from the backend. An empty set leaves the
// slot unranked: ranking absence is a normal state, not a result.
func (c *Cache) Store(jobID int, set *Set) {
	if set == nil || set.Len() == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.jobs[jobID] = &entry{phase: Ranked, set: set, fetchedAt: time.Now()}
}

// BeginRanking marks a trigger in flight while preserving the last-good
// snapshot.
func (c *Cache) BeginRanking(jobID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.jobs[jobID]
	if !ok {
		c.jobs[jobID] = &entry{phase: Ranking}
		return
	}
	e.phase = Ranking
}

// Complete replaces the job's snapshot wholesale with a freshly computed
// one. Old rows for the job are discarded.
func (c *Cache) Complete(jobID int, set *Set) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.jobs[jobID] = &entry{phase: Ranked, set: set, fetchedAt: time.Now()}
}

// Abort ends a failed trigger, leaving whatever snapshot the slot held
// before the attempt untouched.
func (c *Cache) Abort(jobID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.jobs[jobID]
	if !ok {
		return
	}
	if e.set == nil {
		delete(c.jobs, jobID)
		return
	}
	e.phase = Ranked
}

// UpdateStatus mutates the status of the single row matching the email,
// in place. It reports whether a row matched; all other fields of the row
// are left as they were.
func (c *Cache) UpdateStatus(jobID int, email string, status Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.jobs[jobID]
	if !ok || e.set == nil {
		return false
	}

	row := e.set.FindByEmail(email)
	if row == nil {
		return false
	}

	row.Status = status
	return true
}
