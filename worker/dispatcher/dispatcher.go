package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/metrics"
	"golang.org/x/sync/errgroup"
)

// Registry maps a queue name to its handler. It is built once at startup.
type Registry map[string]core.JobHandler

type Config struct {
	Concurrency int `valid:"required"`
}

func New(
	jobs core.JobStore,
	registry Registry,
	logger *slog.Logger,
	cfg Config,
) *Dispatcher {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Dispatcher{
		jobs:     jobs,
		registry: registry,
		logger:   logger.With("worker", "dispatcher"),
		cfg:      cfg,
	}
}

type Dispatcher struct {
	jobs     core.JobStore
	registry Registry
	logger   *slog.Logger
	cfg      Config
}

func (w *Dispatcher) Run(ctx context.Context) error {
	w.logger.Info("dispatcher start", "queues", len(w.registry))

	for {
		dur := time.Second
		if w.run(ctx) == nil {
			dur = 100 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
		}
	}
}

func (w *Dispatcher) run(ctx context.Context) error {
	jobs, err := w.jobs.ListReady(ctx, time.Now(), w.cfg.Concurrency*4)
	if err != nil {
		w.logger.Error("jobs.ListReady", "err", err)
		return err
	}

	if len(jobs) == 0 {
		return fmt.Errorf("ready jobs dry")
	}

	var g errgroup.Group
	g.SetLimit(w.cfg.Concurrency)

	for idx := range jobs {
		job := jobs[idx]
		g.Go(func() error {
			return w.handleJob(ctx, job)
		})
	}

	return g.Wait()
}

func (w *Dispatcher) handleJob(ctx context.Context, job *core.Job) error {
	logger := w.logger.With("job", job.ID, "queue", job.Queue)

	if err := w.jobs.Acquire(ctx, job); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil
		}

		logger.Error("jobs.Acquire", "err", err)
		return err
	}

	start := time.Now()
	err := w.invoke(ctx, job)
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil:
		metrics.RecordJob(job.Queue, "completed", elapsed)
		if err := w.jobs.Complete(ctx, job); err != nil {
			logger.Error("jobs.Complete", "err", err)
			return err
		}

		logger.Debug("job completed", "attempts", job.Attempts)
	case errors.Is(err, core.ErrValidation) || job.Exhausted():
		metrics.RecordJob(job.Queue, "failed", elapsed)
		logger.Error("job failed", "attempts", job.Attempts, "err", err)
		if err := w.jobs.Fail(ctx, job, err); err != nil {
			logger.Error("jobs.Fail", "err", err)
			return err
		}
	default:
		metrics.RecordJob(job.Queue, "retried", elapsed)
		runAt := job.NextRunAt(time.Now())
		logger.Warn("job retry", "attempts", job.Attempts, "run_at", runAt, "err", err)
		if err := w.jobs.Retry(ctx, job, runAt, err); err != nil {
			logger.Error("jobs.Retry", "err", err)
			return err
		}
	}

	return nil
}

func (w *Dispatcher) invoke(ctx context.Context, job *core.Job) (err error) {
	h, ok := w.registry[job.Queue]
	if !ok {
		return fmt.Errorf("no handler for queue %q: %w", job.Queue, core.ErrValidation)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return h.Handle(ctx, job)
}
