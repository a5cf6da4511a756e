package domain

import (
	"context"
	"time"
)

// JobStore defines persistence for job entities.
type JobStore interface {
	// Create inserts a queued job and assigns its identifier.
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	// ListByOwner returns the owner's jobs, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Job, error)
	ListByAlias(ctx context.Context, ownerID, alias string) ([]Job, error)
	// Apply executes one transition event as a single atomic partial update.
	// Applying to a missing or already-terminal row reports ErrNotFound.
	Apply(ctx context.Context, jobID string, t Transition) error
	// Delete removes the job only when the owner matches. A missing or
	// foreign row reports false, not an error.
	Delete(ctx context.Context, jobID, ownerID string) (bool, error)
	DeleteByAlias(ctx context.Context, ownerID, alias string) (int64, error)
	CountActiveByOwner(ctx context.Context, ownerID string) (int, error)
}

// UserStore defines access methods for job owners.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	GetByAPIKey(ctx context.Context, apiKey string) (*User, error)
}

// ProgressSink is the narrow write path the processor uses to push
// incremental state during long-running work.
type ProgressSink interface {
	MarkPhase(ctx context.Context, jobID string, status Status, at time.Time) error
	SetProgress(ctx context.Context, jobID string, value float64)
}
