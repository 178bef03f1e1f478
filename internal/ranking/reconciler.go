package ranking

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/recruiterlab/rankdesk/internal/gateway"
	"github.com/recruiterlab/rankdesk/internal/logger"
)

const statusPathFmt = "/api/candidates/%s/status"

// Reconciler applies disposition changes optimistically: the cached row is
// updated first so the view reflects the change immediately, then the
// backend is told. A failed confirmation is reported, never rolled back.
type Reconciler struct {
	gw     *gateway.Client
	cache  *Cache
	logger *zap.Logger
}

func NewReconciler(gw *gateway.Client, cache *Cache, log *zap.Logger) *Reconciler {
	return &Reconciler{gw: gw, cache: cache, logger: log}
}

// SetStatus moves the candidate's disposition for the job to status. When
// no cached row matches the email, the cache is untouched but the backend
// request is still attempted: the status may apply to a candidate not
// currently in view. Single attempt, no guaranteed delivery beyond it.
func (r *Reconciler) SetStatus(ctx context.Context, email string, jobID int, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}

	if !r.cache.UpdateStatus(jobID, email, status) {
		r.logger.Debug("no cached row for candidate",
			logger.CandidateField(email),
			zap.Int("job_id", jobID),
		)
	}

	q := url.Values{}
	q.Set("job_id", strconv.Itoa(jobID))
	q.Set("status", string(status))

	path := fmt.Sprintf(statusPathFmt, url.PathEscape(email))
	if err := r.gw.Patch(ctx, path, q); err != nil {
		return fmt.Errorf("confirm status change: %w", err)
	}

	r.logger.Info("candidate status updated",
		logger.CandidateField(email),
		zap.Int("job_id", jobID),
		zap.String("status", string(status)),
	)
	return nil
}
