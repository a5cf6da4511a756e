package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"whisperd/internal/domain"
)

// Reporter is the narrow write path used by the processor during long-running
// work. Funnelling incremental updates through it keeps immutable fields out
// of reach of the hot path. Writes for one job are strictly ordered because
// exactly one processor owns a job at a time; the reporter adds no locking.
type Reporter struct {
	store  domain.JobStore
	logger zerolog.Logger
}

// NewReporter builds a reporter over the job store.
func NewReporter(store domain.JobStore, logger zerolog.Logger) *Reporter {
	return &Reporter{store: store, logger: logger}
}

// MarkPhase records a lifecycle phase change. Only the queued-to-processing
// transition flows through here; terminal transitions stay with the processor
// because their failure handling differs.
func (r *Reporter) MarkPhase(ctx context.Context, jobID string, status domain.Status, at time.Time) error {
	if status != domain.StatusProcessing {
		return fmt.Errorf("reporter: unsupported phase %q", status)
	}
	return r.store.Apply(ctx, jobID, domain.StartProcessing{At: at})
}

// SetProgress persists a progress value, fire-and-forget: a failed write is
// logged and dropped rather than retried, since the next update supersedes
// it. The store guards against backward movement.
func (r *Reporter) SetProgress(ctx context.Context, jobID string, value float64) {
	err := r.store.Apply(ctx, jobID, domain.SetProgress{Value: value})
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		// Job deleted (or already terminal) under the processor; harmless.
		r.logger.Debug().Str("job_id", jobID).Msg("progress write skipped, job gone")
		return
	}
	r.logger.Warn().Err(err).Str("job_id", jobID).Float64("progress", value).
		Msg("progress write failed")
}

var _ domain.ProgressSink = (*Reporter)(nil)
