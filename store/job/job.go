package job

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/store"
)

func New(db *store.DB) core.JobStore {
	return &jobStore{db: db}
}

type jobStore struct {
	db *store.DB
}

func (s *jobStore) Create(ctx context.Context, job *core.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	if job.RunAt.IsZero() {
		job.RunAt = now
	}

	if job.Status == "" {
		job.Status = core.JobStatusWaiting
	}

	stmt, args := s.db.Insert("jobs").
		Columns("id", "created_at", "updated_at", "queue", "payload", "status", "attempts", "max_attempts", "backoff_ms", "run_at").
		Values(job.ID, job.CreatedAt, job.UpdatedAt, job.Queue, string(job.Payload), job.Status, job.Attempts, job.MaxAttempts, job.Backoff.Milliseconds(), job.RunAt.UTC()).
		MustSql()
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func (s *jobStore) Find(ctx context.Context, id string) (*core.Job, error) {
	stmt, args := s.db.Select(columns...).From("jobs").Where(sq.Eq{"id": id}).MustSql()

	var job core.Job
	if err := scanJob(s.db.QueryRowContext(ctx, stmt, args...), &job); err != nil {
		if store.IsErrNotFound(err) {
			return nil, fmt.Errorf("job %s: %w", id, core.ErrNotFound)
		}

		return nil, err
	}

	return &job, nil
}

func (s *jobStore) ListReady(ctx context.Context, now time.Time, limit int) ([]*core.Job, error) {
	stmt, args := s.db.Select(columns...).
		From("jobs").
		Where(sq.Eq{"status": core.JobStatusWaiting}).
		Where(sq.LtOrEq{"run_at": now.UTC()}).
		OrderBy("run_at").
		Limit(uint64(limit)).
		MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	return scanJobs(rows)
}

func (s *jobStore) List(ctx context.Context, queue string, status core.JobStatus, limit int) ([]*core.Job, error) {
	if limit <= 0 {
		limit = 100
	}

	b := s.db.Select(columns...).From("jobs").OrderBy("created_at DESC").Limit(uint64(limit))
	if queue != "" {
		b = b.Where(sq.Eq{"queue": queue})
	}

	if status != "" {
		b = b.Where(sq.Eq{"status": status})
	}

	stmt, args := b.MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	return scanJobs(rows)
}

// transit moves job from one status to another, optimistic on the current status.
func (s *jobStore) transit(ctx context.Context, job *core.Job, from core.JobStatus, b sq.UpdateBuilder) error {
	now := time.Now().UTC()
	stmt, args := b.Set("updated_at", now).
		Where(sq.Eq{"id": job.ID, "status": from}).
		MustSql()
	r, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}

	n, err := r.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("job %s is not %s: %w", job.ID, from, core.ErrConflict)
	}

	job.UpdatedAt = now
	return nil
}

func (s *jobStore) Acquire(ctx context.Context, job *core.Job) error {
	b := s.db.Update("jobs").
		Set("status", core.JobStatusActive).
		Set("attempts", sq.Expr("attempts + 1"))
	if err := s.transit(ctx, job, core.JobStatusWaiting, b); err != nil {
		return err
	}

	job.Status = core.JobStatusActive
	job.Attempts++
	return nil
}

func (s *jobStore) Complete(ctx context.Context, job *core.Job) error {
	now := time.Now().UTC()
	b := s.db.Update("jobs").
		Set("status", core.JobStatusCompleted).
		Set("finished_at", now)
	if err := s.transit(ctx, job, core.JobStatusActive, b); err != nil {
		return err
	}

	job.Status, job.FinishedAt = core.JobStatusCompleted, &now
	return nil
}

func (s *jobStore) Retry(ctx context.Context, job *core.Job, runAt time.Time, cause error) error {
	b := s.db.Update("jobs").
		Set("status", core.JobStatusWaiting).
		Set("run_at", runAt.UTC()).
		Set("last_error", errorText(cause))
	if err := s.transit(ctx, job, core.JobStatusActive, b); err != nil {
		return err
	}

	job.Status, job.RunAt, job.LastError = core.JobStatusWaiting, runAt.UTC(), errorText(cause)
	return nil
}

func (s *jobStore) Fail(ctx context.Context, job *core.Job, cause error) error {
	now := time.Now().UTC()
	b := s.db.Update("jobs").
		Set("status", core.JobStatusFailed).
		Set("last_error", errorText(cause)).
		Set("finished_at", now)
	if err := s.transit(ctx, job, core.JobStatusActive, b); err != nil {
		return err
	}

	job.Status, job.LastError, job.FinishedAt = core.JobStatusFailed, errorText(cause), &now
	return nil
}

func (s *jobStore) Requeue(ctx context.Context, job *core.Job) error {
	now := time.Now().UTC()
	b := s.db.Update("jobs").
		Set("status", core.JobStatusWaiting).
		Set("attempts", 0).
		Set("run_at", now).
		Set("finished_at", nil)
	if err := s.transit(ctx, job, core.JobStatusFailed, b); err != nil {
		return err
	}

	job.Status, job.Attempts, job.RunAt, job.FinishedAt = core.JobStatusWaiting, 0, now, nil
	return nil
}

func (s *jobStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	stmt, args := s.db.Delete("jobs").
		Where(sq.Eq{"status": []core.JobStatus{core.JobStatusCompleted, core.JobStatusFailed}}).
		Where(sq.Lt{"finished_at": before.UTC()}).
		MustSql()
	r, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}

	return r.RowsAffected()
}

func (s *jobStore) Recover(ctx context.Context, before time.Time) (int64, error) {
	stmt, args := s.db.Update("jobs").
		Set("status", core.JobStatusWaiting).
		Set("run_at", time.Now().UTC()).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"status": core.JobStatusActive}).
		Where(sq.Lt{"updated_at": before.UTC()}).
		MustSql()
	r, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}

	return r.RowsAffected()
}

func errorText(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
