package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pandodao/tag-wallet/core"
	"github.com/zyedidia/generic/mapset"
)

// Migrator imports a customer's settled rail history into the local ledger.
// The newest imported timestamp is checkpointed per customer, so reruns only
// look at newer rows. Balances are not touched.
type Migrator struct {
	users        core.UserStore
	wallets      core.WalletStore
	transactions core.TransactionStore
	properties   core.PropertyStore
	gateway      core.SettlementGateway
	logger       *slog.Logger
}

func NewMigrator(
	users core.UserStore,
	wallets core.WalletStore,
	transactions core.TransactionStore,
	properties core.PropertyStore,
	gateway core.SettlementGateway,
	logger *slog.Logger,
) *Migrator {
	return &Migrator{
		users:        users,
		wallets:      wallets,
		transactions: transactions,
		properties:   properties,
		gateway:      gateway,
		logger:       logger.With("task", core.QueueMigrateTransaction),
	}
}

func checkpointKey(customerID string) string {
	return "migration:" + customerID
}

func (t *Migrator) Handle(ctx context.Context, job *core.Job) error {
	var p core.MigrateTransaction
	if err := decode(job, &p); err != nil {
		return err
	}

	if p.CustomerID == "" {
		return fmt.Errorf("migrate payload without customer: %w", core.ErrValidation)
	}

	logger := t.logger.With("customer", p.CustomerID)

	user, err := t.users.FindProvider(ctx, p.CustomerID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("customer %s: %w", p.CustomerID, core.ErrValidation)
		}

		logger.Error("users.FindProvider", "err", err)
		return err
	}

	wallet, err := t.wallets.FindUser(ctx, user.ID)
	if err != nil {
		logger.Error("wallets.FindUser", "err", err)
		return err
	}

	var checkpoint time.Time
	if _, err := t.properties.Get(ctx, checkpointKey(p.CustomerID), &checkpoint); err != nil {
		logger.Error("properties.Get", "err", err)
		return err
	}

	rows, err := t.gateway.ListCustomerTransactions(ctx, p.CustomerID)
	if err != nil {
		logger.Error("gateway.ListCustomerTransactions", "err", err)
		return err
	}

	var (
		seen     = mapset.New[string]()
		newest   = checkpoint
		imported int
	)

	for _, row := range rows {
		if !row.Completed || !row.CreatedAt.After(checkpoint) {
			continue
		}

		tx := migrated(row, user.ID, wallet.ID)
		if seen.Has(tx.Reference) {
			continue
		}
		seen.Put(tx.Reference)

		ok, err := t.importRow(ctx, tx)
		if err != nil {
			logger.Error("importRow", "reference", tx.Reference, "err", err)
			return err
		}

		if ok {
			imported++
		}

		if row.CreatedAt.After(newest) {
			newest = row.CreatedAt
		}
	}

	if newest.After(checkpoint) {
		if err := t.properties.Set(ctx, checkpointKey(p.CustomerID), newest); err != nil {
			logger.Error("properties.Set", "err", err)
			return err
		}
	}

	logger.Info("history migrated", "rows", len(rows), "imported", imported)
	return nil
}

// importRow stores tx unless its reference is already known locally.
func (t *Migrator) importRow(ctx context.Context, tx *core.Transaction) (bool, error) {
	if _, err := t.transactions.FindReference(ctx, tx.Reference); err == nil {
		return false, nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return false, err
	}

	if err := t.transactions.Create(ctx, tx); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func migrated(row *core.RailTransaction, userID, walletID string) *core.Transaction {
	reference := row.Reference
	if reference == "" {
		reference = "MIG-" + row.ID
	}

	paymentType := core.PaymentTypeWalletTransfer
	if strings.Contains(strings.ToUpper(row.Category), "BANK") {
		paymentType = core.PaymentTypeInterBank
	}

	txType := row.Type
	if txType != core.TransactionTypeCredit {
		txType = core.TransactionTypeDebit
	}

	return &core.Transaction{
		CreatedAt:   row.CreatedAt,
		Reference:   reference,
		Amount:      row.Amount,
		Type:        txType,
		Kind:        core.KindMigrated,
		PaymentType: paymentType,
		Status:      core.TransactionStatusCompleted,
		UserID:      userID,
		WalletID:    walletID,
		Narration:   row.Description,
		Metadata:    map[string]string{core.MetaOrigin: row.ID},
	}
}
