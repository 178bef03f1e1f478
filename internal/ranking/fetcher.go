package ranking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/recruiterlab/rankdesk/internal/gateway"
)

const (
	cachedRankingPathFmt  = "/api/jobs/%d/ranking"
	triggerRankingPathFmt = "/api/jobs/%d/rank"
)

// ErrRankingUnavailable means the scoring computation failed or the scoring
// runtime is unreachable. It is distinct from a generic backend failure so
// the surface layer can point the user at the scoring backend instead of
// implying a network fault.
var ErrRankingUnavailable = errors.New("ranking unavailable")

// Fetcher loads and triggers rankings for jobs, maintaining the per-job
// cache as it goes.
type Fetcher struct {
	gw     *gateway.Client
	cache  *Cache
	logger *zap.Logger
}

func NewFetcher(gw *gateway.Client, cache *Cache, logger *zap.Logger) *Fetcher {
	return &Fetcher{gw: gw, cache: cache, logger: logger}
}

// LoadCached fetches whatever ranking snapshot the backend currently holds
// for the job, without triggering computation. It never fails: ranking
// absence is a normal state, so any error degrades to an empty set.
func (f *Fetcher) LoadCached(ctx context.Context, jobID int) *Set {
	var items []map[string]any
	path := fmt.Sprintf(cachedRankingPathFmt, jobID)

	if err := f.gw.GetJSON(ctx, path, nil, &items); err != nil {
		f.logger.Debug("no cached ranking available",
			zap.Int("job_id", jobID),
			zap.Error(err),
		)
		return &Set{}
	}

	set, err := decodeSet(items)
	if err != nil {
		f.logger.Warn("discarding undecodable ranking snapshot",
			zap.Int("job_id", jobID),
			zap.Error(err),
		)
		return &Set{}
	}

	f.cache.Store(jobID, set)

	f.logger.Debug("loaded cached ranking",
		zap.Int("job_id", jobID),
		zap.Int("candidates", set.Len()),
	)
	return set
}

// Trigger requests a fresh, expensive ranking computation for the job and
// replaces the cached snapshot wholesale on success. The call is a single
// long-lived request with no progress channel; it legitimately runs for
// tens of seconds, so deadlines belong to the caller's context.
//
// On failure the cache keeps its last-good snapshot and the error wraps
// ErrRankingUnavailable, except for session expiry which passes through
// untouched.
func (f *Fetcher) Trigger(ctx context.Context, jobID int) (*Set, error) {
	f.cache.BeginRanking(jobID)
	path := fmt.Sprintf(triggerRankingPathFmt, jobID)

	var items []map[string]any
	if err := f.gw.PostJSON(ctx, path, nil, &items); err != nil {
		f.cache.Abort(jobID)
		if errors.Is(err, gateway.ErrSessionExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRankingUnavailable, err)
	}

	set, err := decodeSet(items)
	if err != nil {
		f.cache.Abort(jobID)
		return nil, fmt.Errorf("%w: decoding ranking response: %w", ErrRankingUnavailable, err)
	}

	f.cache.Complete(jobID, set)

	f.logger.Info("ranking computed",
		zap.Int("job_id", jobID),
		zap.Int("candidates", set.Len()),
	)
	return set, nil
}
