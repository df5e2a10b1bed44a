package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/pandodao/tag-wallet/core"
)

// Notifier publishes the lifecycle event of a finished transfer.
type Notifier struct {
	transactions core.TransactionStore
	notifier     core.Notifier
	logger       *slog.Logger
}

func NewNotifier(transactions core.TransactionStore, notifier core.Notifier, logger *slog.Logger) *Notifier {
	return &Notifier{
		transactions: transactions,
		notifier:     notifier,
		logger:       logger.With("task", core.QueueNotifyTransfer),
	}
}

func (t *Notifier) Handle(ctx context.Context, job *core.Job) error {
	var p core.NotifyTransfer
	if err := decode(job, &p); err != nil {
		return err
	}

	tx, err := t.transactions.FindReference(ctx, p.Reference)
	if err != nil {
		t.logger.Error("transactions.FindReference", "reference", p.Reference, "err", err)
		return err
	}

	event := &core.TransferEvent{
		EventID:     tx.ID + ":" + string(tx.Status),
		EventType:   "transfer." + string(tx.Status),
		Reference:   tx.Reference,
		Status:      tx.Status,
		Type:        tx.Type,
		PaymentType: tx.PaymentType,
		UserID:      tx.UserID,
		WalletID:    tx.WalletID,
		Amount:      tx.Amount,
		Fee:         tx.Fee,
		SessionID:   tx.SessionID,
		Narration:   tx.Narration,
		OccurredAt:  time.Now().UTC(),
	}

	if err := t.notifier.Publish(ctx, event); err != nil {
		t.logger.Error("notifier.Publish", "reference", p.Reference, "err", err)
		return err
	}

	return nil
}
