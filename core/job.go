package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusWaiting   JobStatus = "waiting"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

const (
	QueueChargeTransferFee  = "create_transfer_fee_charge"
	QueueCreateAccount      = "create_tagpay_account"
	QueueMigrateTransaction = "migrate_transaction"
	QueueNotifyTransfer     = "notify_transfer"
)

type Job struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Queue       string          `json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	Status      JobStatus       `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Backoff     time.Duration   `json:"backoff"`
	RunAt       time.Time       `json:"run_at"`
	LastError   string          `json:"last_error,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

type JobOptions struct {
	MaxAttempts int
	Backoff     time.Duration
}

var DefaultJobOptions = JobOptions{
	MaxAttempts: 3,
	Backoff:     50 * time.Second,
}

// NewJob encodes payload into a waiting job runnable immediately.
func NewJob(queue string, payload any, opts JobOptions) (*Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultJobOptions.MaxAttempts
	}

	now := time.Now().UTC()
	return &Job{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Queue:       queue,
		Payload:     data,
		Status:      JobStatusWaiting,
		MaxAttempts: opts.MaxAttempts,
		Backoff:     opts.Backoff,
		RunAt:       now,
	}, nil
}

// Enqueue stores a new waiting job for queue.
func Enqueue(ctx context.Context, jobs JobStore, queue string, payload any, opts JobOptions) (*Job, error) {
	job, err := NewJob(queue, payload, opts)
	if err != nil {
		return nil, err
	}

	if err := jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	return job, nil
}

// NextRunAt is the exponential backoff after the current attempt failed.
func (j *Job) NextRunAt(now time.Time) time.Time {
	n := max(j.Attempts-1, 0)
	return now.Add(j.Backoff * time.Duration(1<<n))
}

// Exhausted reports whether the last attempt was the final one.
func (j *Job) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}

type JobStore interface {
	Create(ctx context.Context, job *Job) error
	Find(ctx context.Context, id string) (*Job, error)
	ListReady(ctx context.Context, now time.Time, limit int) ([]*Job, error)
	List(ctx context.Context, queue string, status JobStatus, limit int) ([]*Job, error)
	// Acquire moves a waiting job to active and counts the attempt; ErrConflict if another worker won.
	Acquire(ctx context.Context, job *Job) error
	Complete(ctx context.Context, job *Job) error
	// Retry puts an active job back to waiting until runAt.
	Retry(ctx context.Context, job *Job, runAt time.Time, cause error) error
	Fail(ctx context.Context, job *Job, cause error) error
	// Requeue resets a failed job for another round of attempts.
	Requeue(ctx context.Context, job *Job) error
	// Purge deletes completed and failed jobs finished before.
	Purge(ctx context.Context, before time.Time) (int64, error)
	// Recover puts active jobs untouched since before back to waiting.
	Recover(ctx context.Context, before time.Time) (int64, error)
}

// JobHandler runs one attempt of a job. Returning an error wrapping
// ErrValidation fails the job without further attempts.
type JobHandler interface {
	Handle(ctx context.Context, job *Job) error
}

type JobHandlerFunc func(ctx context.Context, job *Job) error

func (f JobHandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

type ChargeTransferFee struct {
	WalletID  string `json:"wallet_id"`
	UserID    string `json:"user_id"`
	Fee       int64  `json:"fee"`
	Reference string `json:"reference"`
}

type CreateAccount struct {
	FirstName   string `json:"firstName" valid:"required"`
	LastName    string `json:"lastName" valid:"required"`
	DateOfBirth string `json:"dateOfBirth" valid:"required"`
	Email       string `json:"email" valid:"required,email"`
	Address     string `json:"address" valid:"required"`
	PhoneNumber string `json:"phoneNumber" valid:"required"`
	Bvn         string `json:"bvn" valid:"required,numeric"`
	Tier        string `json:"tier" valid:"required,in(TIER_1|TIER_2|TIER_3)"`
	UserID      string `json:"userId" valid:"required"`
}

type MigrateTransaction struct {
	CustomerID string `json:"customerId"`
}

type NotifyTransfer struct {
	Reference string `json:"reference"`
}
