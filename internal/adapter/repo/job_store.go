package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"whisperd/internal/domain"
	"whisperd/internal/infra"
	"whisperd/internal/sqlinline"
)

// JobStore implements domain.JobStore on PostgreSQL.
type JobStore struct {
	sql infra.SQLExecutor
}

// NewJobStore creates a job store backed by the given executor.
func NewJobStore(sql infra.SQLExecutor) *JobStore {
	return &JobStore{sql: sql}
}

// Create inserts a new queued job record. The insert is a single statement,
// so a record is never partially visible.
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	job.Status = domain.StatusQueued
	job.Progress = 0

	_, err := s.sql.Exec(ctx, sqlinline.QInsertJob,
		job.ID,
		job.OwnerID,
		job.Filename,
		job.Model,
		job.Status,
		job.CreatedAt,
		job.Alias,
		job.LanguageHint,
	)
	if err != nil {
		return storeErr("jobs: create", err)
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (s *JobStore) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectJobByID, jobID)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("jobs: get", err)
	}
	return job, nil
}

// ListByOwner returns all jobs of one owner, newest first.
func (s *JobStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Job, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectJobsByOwner, ownerID)
	if err != nil {
		return nil, storeErr("jobs: list", err)
	}
	return collectJobs(rows)
}

// ListByAlias returns the owner's jobs carrying the given alias, newest first.
func (s *JobStore) ListByAlias(ctx context.Context, ownerID, alias string) ([]domain.Job, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectJobsByAlias, ownerID, alias)
	if err != nil {
		return nil, storeErr("jobs: list alias", err)
	}
	return collectJobs(rows)
}

// Apply executes one transition event as a single partial update. The SQL
// guards on the expected source status, so a write that races a delete or
// arrives after a terminal transition matches zero rows and reports
// ErrNotFound instead of mutating the record.
func (s *JobStore) Apply(ctx context.Context, jobID string, t domain.Transition) error {
	var (
		query string
		args  []any
	)
	switch e := t.(type) {
	case domain.StartProcessing:
		query = sqlinline.QJobStartProcessing
		args = []any{jobID, e.At.UTC()}
	case domain.SetProgress:
		query = sqlinline.QJobSetProgress
		args = []any{jobID, clampProgress(e.Value)}
	case domain.CompleteSuccess:
		query = sqlinline.QJobCompleteSuccess
		args = []any{jobID, e.Result, e.Duration, e.DetectedLanguage, e.AudioDuration, e.FileSize}
	case domain.CompleteFailure:
		query = sqlinline.QJobCompleteFailure
		args = []any{jobID, e.ErrorMessage, e.Duration}
	default:
		return fmt.Errorf("jobs: apply: unknown transition %T", t)
	}

	tag, err := s.sql.Exec(ctx, query, args...)
	if err != nil {
		return storeErr("jobs: apply", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the job only when the owner matches; a missing or foreign
// row reports false without error.
func (s *JobStore) Delete(ctx context.Context, jobID, ownerID string) (bool, error) {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteJob, jobID, ownerID)
	if err != nil {
		return false, storeErr("jobs: delete", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByAlias removes all of the owner's jobs carrying the alias and
// returns the number removed.
func (s *JobStore) DeleteByAlias(ctx context.Context, ownerID, alias string) (int64, error) {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteJobsByAlias, ownerID, alias)
	if err != nil {
		return 0, storeErr("jobs: delete alias", err)
	}
	return tag.RowsAffected(), nil
}

// CountActiveByOwner counts the owner's queued and processing jobs.
func (s *JobStore) CountActiveByOwner(ctx context.Context, ownerID string) (int, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QCountActiveJobs, ownerID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, storeErr("jobs: count active", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var status string
	if err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Filename,
		&job.Model,
		&status,
		&job.Result,
		&job.CreatedAt,
		&job.Alias,
		&job.LanguageHint,
		&job.Progress,
		&job.StartedAt,
		&job.Duration,
		&job.DetectedLanguage,
		&job.AudioDuration,
		&job.FileSize,
		&job.ErrorMessage,
	); err != nil {
		return nil, err
	}
	parsed, ok := domain.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown job status %q", status)
	}
	job.Status = parsed
	return &job, nil
}

func collectJobs(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}) ([]domain.Job, error) {
	defer rows.Close()
	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, storeErr("jobs: scan", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("jobs: rows", err)
	}
	return jobs, nil
}

func clampProgress(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

var _ domain.JobStore = (*JobStore)(nil)
