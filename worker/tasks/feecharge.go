package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/tag-wallet/core"
)

type FeeChargerConfig struct {
	FeeWalletID string `valid:"required"`
}

// FeeCharger moves a captured transfer fee from the customer's rail wallet to
// the fee wallet. The FEE-<reference> row makes retries safe.
type FeeCharger struct {
	users        core.UserStore
	wallets      core.WalletStore
	transactions core.TransactionStore
	gateway      core.SettlementGateway
	logger       *slog.Logger
	cfg          FeeChargerConfig
}

func NewFeeCharger(
	users core.UserStore,
	wallets core.WalletStore,
	transactions core.TransactionStore,
	gateway core.SettlementGateway,
	logger *slog.Logger,
	cfg FeeChargerConfig,
) *FeeCharger {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &FeeCharger{
		users:        users,
		wallets:      wallets,
		transactions: transactions,
		gateway:      gateway,
		logger:       logger.With("task", core.QueueChargeTransferFee),
		cfg:          cfg,
	}
}

func (t *FeeCharger) Handle(ctx context.Context, job *core.Job) error {
	var p core.ChargeTransferFee
	if err := decode(job, &p); err != nil {
		return err
	}

	if p.Fee <= 0 || p.Reference == "" || p.WalletID == "" {
		return fmt.Errorf("incomplete fee payload %+v: %w", p, core.ErrValidation)
	}

	logger := t.logger.With("reference", p.Reference)

	tx, err := t.transactions.FindReference(ctx, feeReference(p.Reference))
	switch {
	case err == nil:
		if tx.Status == core.TransactionStatusCompleted {
			logger.Debug("fee already charged")
			return nil
		}

		// an earlier attempt may have reached the rail before failing
		charged, err := t.charged(ctx, p.UserID, tx.Reference)
		if err != nil {
			return err
		}

		if charged {
			return t.transactions.UpdateStatus(ctx, tx, core.TransactionStatusCompleted)
		}
	case errors.Is(err, core.ErrNotFound):
		tx = &core.Transaction{
			Reference:   feeReference(p.Reference),
			Amount:      p.Fee,
			Type:        core.TransactionTypeDebit,
			Kind:        core.KindFee,
			PaymentType: core.PaymentTypeWalletTransfer,
			Status:      core.TransactionStatusPending,
			UserID:      p.UserID,
			WalletID:    p.WalletID,
			Narration:   "transfer fee",
			Metadata:    map[string]string{core.MetaOrigin: p.Reference},
		}

		if err := t.transactions.Create(ctx, tx); err != nil {
			logger.Error("transactions.Create", "err", err)
			return err
		}
	default:
		logger.Error("transactions.FindReference", "err", err)
		return err
	}

	wallet, err := t.wallets.Find(ctx, p.WalletID)
	if err != nil {
		logger.Error("wallets.Find", "err", err)
		return err
	}

	if err := t.gateway.TransferWalletToWallet(ctx, &core.WalletTransferInput{
		Reference:    tx.Reference,
		FromWalletID: wallet.ProviderWalletID,
		ToWalletID:   t.cfg.FeeWalletID,
		Amount:       p.Fee,
	}); err != nil {
		logger.Error("gateway.TransferWalletToWallet", "err", err)
		return err
	}

	if err := t.transactions.UpdateStatus(ctx, tx, core.TransactionStatusCompleted); err != nil {
		logger.Error("transactions.UpdateStatus", "err", err)
		return err
	}

	logger.Info("fee charged", "fee", p.Fee)
	return nil
}

func (t *FeeCharger) charged(ctx context.Context, userID, reference string) (bool, error) {
	user, err := t.users.Find(ctx, userID)
	if err != nil {
		return false, err
	}

	txs, err := t.gateway.ListCustomerTransactions(ctx, user.ProviderID)
	if err != nil {
		t.logger.Error("gateway.ListCustomerTransactions", "reference", reference, "err", err)
		return false, err
	}

	for _, tx := range txs {
		if tx.Reference == reference && tx.Completed {
			return true, nil
		}
	}

	return false, nil
}
