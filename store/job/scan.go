package job

import (
	"database/sql"
	"time"

	"github.com/pandodao/tag-wallet/core"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

var columns = []string{
	"id",
	"created_at",
	"updated_at",
	"queue",
	"payload",
	"status",
	"attempts",
	"max_attempts",
	"backoff_ms",
	"run_at",
	"last_error",
	"finished_at",
}

func scanJob(scanner scanner, job *core.Job) error {
	var (
		payload    string
		backoff    int64
		lastError  sql.NullString
		finishedAt sql.NullTime
	)

	if err := scanner.Scan(
		&job.ID,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.Queue,
		&payload,
		&job.Status,
		&job.Attempts,
		&job.MaxAttempts,
		&backoff,
		&job.RunAt,
		&lastError,
		&finishedAt,
	); err != nil {
		return err
	}

	job.Payload = []byte(payload)
	job.Backoff = time.Duration(backoff) * time.Millisecond
	job.LastError = lastError.String
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}

	return nil
}

func scanJobs(rows *sql.Rows) ([]*core.Job, error) {
	defer rows.Close()

	var jobs []*core.Job
	for rows.Next() {
		var job core.Job
		if err := scanJob(rows, &job); err != nil {
			return nil, err
		}

		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}
