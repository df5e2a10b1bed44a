package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/metrics"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	// Grace is how long a transfer may stay PENDING before the rail is asked about it.
	Grace time.Duration
	Batch int
}

func New(
	users core.UserStore,
	transactions core.TransactionStore,
	transfers core.TransferService,
	gateway core.SettlementGateway,
	logger *slog.Logger,
	cfg Config,
) *Reconciler {
	if cfg.Grace <= 0 {
		cfg.Grace = time.Hour
	}

	if cfg.Batch <= 0 {
		cfg.Batch = 64
	}

	return &Reconciler{
		users:        users,
		transactions: transactions,
		transfers:    transfers,
		gateway:      gateway,
		logger:       logger.With("worker", "reconciler"),
		cfg:          cfg,
	}
}

// Reconciler resolves transfers left PENDING by an ambiguous rail answer.
type Reconciler struct {
	users        core.UserStore
	transactions core.TransactionStore
	transfers    core.TransferService
	gateway      core.SettlementGateway
	logger       *slog.Logger
	cfg          Config
}

func (w *Reconciler) Run(ctx context.Context) error {
	w.logger.Info("reconciler start", "grace", w.cfg.Grace)

	for {
		dur := time.Minute
		if w.run(ctx) == nil {
			dur = 10 * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
		}
	}
}

func (w *Reconciler) run(ctx context.Context) error {
	txs, err := w.transactions.ListStale(ctx, time.Now().Add(-w.cfg.Grace), w.cfg.Batch)
	if err != nil {
		w.logger.Error("transactions.ListStale", "err", err)
		return err
	}

	var g errgroup.Group
	g.SetLimit(10)

	for idx := range txs {
		tx := txs[idx]
		g.Go(func() error {
			return w.handleTransaction(ctx, tx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if len(txs) == 0 {
		return fmt.Errorf("no stale pending transfers")
	}

	return nil
}

func (w *Reconciler) handleTransaction(ctx context.Context, tx *core.Transaction) error {
	logger := w.logger.With("reference", tx.Reference)

	user, err := w.users.Find(ctx, tx.UserID)
	if err != nil {
		logger.Error("users.Find", "err", err)
		return err
	}

	rows, err := w.gateway.ListCustomerTransactions(ctx, user.ProviderID)
	if err != nil {
		logger.Error("gateway.ListCustomerTransactions", "err", err)
		return err
	}

	row := findReference(rows, tx.Reference)
	switch {
	case row == nil:
		// the rail never recorded it
		err = w.transfers.Fail(ctx, tx)
		w.record(logger, err, "failed")
	case row.Completed:
		err = w.transfers.Complete(ctx, tx, "")
		w.record(logger, err, "completed")
	default:
		logger.Debug("transfer still in flight on the rail")
		metrics.RecordReconciled("in_flight")
		return nil
	}

	// another worker resolved it first
	if errors.Is(err, core.ErrConflict) {
		return nil
	}

	return err
}

func (w *Reconciler) record(logger *slog.Logger, err error, status string) {
	if err != nil {
		logger.Error("resolve pending transfer", "status", status, "err", err)
		return
	}

	logger.Info("pending transfer resolved", "status", status)
	metrics.RecordReconciled(status)
}

func findReference(rows []*core.RailTransaction, reference string) *core.RailTransaction {
	for _, row := range rows {
		if row.Reference == reference {
			return row
		}
	}

	return nil
}
