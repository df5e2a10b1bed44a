package cleaner

import (
	"context"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/tag-wallet/core"
)

type Config struct {
	// Retention is how long finished jobs are kept.
	Retention time.Duration `valid:"required"`
	// Stall is how long an active job may go untouched before it is
	// considered abandoned by a crashed worker.
	Stall time.Duration `valid:"required"`
}

type Cleaner struct {
	jobs   core.JobStore
	logger *slog.Logger
	cfg    Config
}

func New(
	jobs core.JobStore,
	logger *slog.Logger,
	cfg Config,
) *Cleaner {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Cleaner{
		jobs:   jobs,
		logger: logger.With("worker", "cleaner"),
		cfg:    cfg,
	}
}

func (w *Cleaner) Run(ctx context.Context) error {
	w.logger.Info("cleaner start")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Minute):
			_ = w.run(ctx, time.Now())
		}
	}
}

func (w *Cleaner) run(ctx context.Context, now time.Time) error {
	recovered, err := w.jobs.Recover(ctx, now.Add(-w.cfg.Stall))
	if err != nil {
		w.logger.Error("jobs.Recover", "err", err)
		return err
	}

	if recovered > 0 {
		w.logger.Warn("stalled jobs recovered", "count", recovered)
	}

	purged, err := w.jobs.Purge(ctx, now.Add(-w.cfg.Retention))
	if err != nil {
		w.logger.Error("jobs.Purge", "err", err)
		return err
	}

	if purged > 0 {
		w.logger.Info("finished jobs purged", "count", purged)
	}

	return nil
}
