package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(t *testing.T, queue string) *core.Job {
	job, err := core.NewJob(queue, core.NotifyTransfer{Reference: "TRF-1"}, core.DefaultJobOptions)
	require.NoError(t, err)
	return job
}

func TestJobStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	jobs := New(storetest.Open(t))

	job := newJob(t, core.QueueNotifyTransfer)
	require.NoError(t, jobs.Create(ctx, job))

	ready, err := jobs.ListReady(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.JSONEq(t, `{"reference":"TRF-1"}`, string(ready[0].Payload))
	assert.Equal(t, 50*time.Second, ready[0].Backoff)

	require.NoError(t, jobs.Acquire(ctx, ready[0]))
	assert.Equal(t, 1, ready[0].Attempts)

	// a second worker holding the same snapshot loses the race
	assert.ErrorIs(t, jobs.Acquire(ctx, job), core.ErrConflict)

	runAt := time.Now().Add(time.Minute)
	require.NoError(t, jobs.Retry(ctx, ready[0], runAt, errors.New("rail timeout")))

	ready, err = jobs.ListReady(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, ready, "retried job waits for its backoff")

	got, err := jobs.Find(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusWaiting, got.Status)
	assert.Equal(t, "rail timeout", got.LastError)
	assert.Equal(t, 1, got.Attempts)

	ready, err = jobs.ListReady(ctx, runAt.Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, ready, 1)

	require.NoError(t, jobs.Acquire(ctx, ready[0]))
	require.NoError(t, jobs.Complete(ctx, ready[0]))

	got, err = jobs.Find(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusCompleted, got.Status)
	assert.Equal(t, 2, got.Attempts)
	require.NotNil(t, got.FinishedAt)
}

func TestJobStore_FailRequeuePurge(t *testing.T) {
	ctx := context.Background()
	jobs := New(storetest.Open(t))

	failed := newJob(t, core.QueueChargeTransferFee)
	require.NoError(t, jobs.Create(ctx, failed))
	require.NoError(t, jobs.Acquire(ctx, failed))
	require.NoError(t, jobs.Fail(ctx, failed, errors.New("rejected")))

	waiting := newJob(t, core.QueueNotifyTransfer)
	require.NoError(t, jobs.Create(ctx, waiting))

	list, err := jobs.List(ctx, "", core.JobStatusFailed, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "rejected", list[0].LastError)

	list, err = jobs.List(ctx, core.QueueNotifyTransfer, "", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, jobs.Requeue(ctx, list[0]), core.ErrConflict, "only failed jobs are requeued")

	// finished jobs inside the retention window survive a purge
	n, err := jobs.Purge(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = jobs.Purge(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = jobs.Find(ctx, failed.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = jobs.Find(ctx, waiting.ID)
	require.NoError(t, err)
}

func TestJobStore_Requeue(t *testing.T) {
	ctx := context.Background()
	jobs := New(storetest.Open(t))

	job := newJob(t, core.QueueCreateAccount)
	require.NoError(t, jobs.Create(ctx, job))
	require.NoError(t, jobs.Acquire(ctx, job))
	require.NoError(t, jobs.Fail(ctx, job, errors.New("bvn mismatch")))

	require.NoError(t, jobs.Requeue(ctx, job))

	got, err := jobs.Find(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusWaiting, got.Status)
	assert.Zero(t, got.Attempts)
	assert.Nil(t, got.FinishedAt)
	assert.Equal(t, "bvn mismatch", got.LastError)
}

func TestJobStore_Recover(t *testing.T) {
	ctx := context.Background()
	jobs := New(storetest.Open(t))

	job := newJob(t, core.QueueMigrateTransaction)
	require.NoError(t, jobs.Create(ctx, job))
	require.NoError(t, jobs.Acquire(ctx, job))

	n, err := jobs.Recover(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = jobs.Recover(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := jobs.Find(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusWaiting, got.Status)
	assert.Equal(t, 1, got.Attempts, "the interrupted attempt still counts")
}
