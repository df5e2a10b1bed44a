package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/metrics"
)

type Config struct {
	Jobs core.JobOptions `valid:"-"`
}

func New(
	users core.UserStore,
	wallets core.WalletStore,
	transactions core.TransactionStore,
	jobs core.JobStore,
	gateway core.SettlementGateway,
	logger *slog.Logger,
	cfg Config,
) core.TransferService {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &service{
		users:        users,
		wallets:      wallets,
		transactions: transactions,
		jobs:         jobs,
		gateway:      gateway,
		logger:       logger.With("service", "transfer"),
		cfg:          cfg,
	}
}

type service struct {
	users        core.UserStore
	wallets      core.WalletStore
	transactions core.TransactionStore
	jobs         core.JobStore
	gateway      core.SettlementGateway
	logger       *slog.Logger
	cfg          Config
}

func newReference() string {
	return "TRF-" + uuid.NewString()
}

func creditReference(reference string) string {
	return reference + "-CR"
}

func (s *service) BankTransfer(ctx context.Context, req *core.BankTransferRequest) (*core.TransferResult, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	if _, err := govalidator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrValidation)
	}

	if req.Reference == "" {
		req.Reference = newReference()
	}

	if err := s.checkReference(ctx, req.Reference); err != nil {
		return nil, err
	}

	user, err := s.users.Find(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.spendableWallet(ctx, user)
	if err != nil {
		return nil, err
	}

	fee := core.TransferFee(req.Amount)
	tx := &core.Transaction{
		Reference:   req.Reference,
		Amount:      req.Amount,
		Fee:         fee,
		Type:        core.TransactionTypeDebit,
		Kind:        core.KindTransfer,
		PaymentType: core.PaymentTypeInterBank,
		Status:      core.TransactionStatusPending,
		UserID:      user.ID,
		WalletID:    wallet.ID,
		Narration:   req.Narration,
		Metadata:    bankMetadata(req),
	}

	state, err := s.reserve(ctx, wallet, tx)
	if err != nil {
		return s.result(state, tx, err)
	}

	result, err := s.gateway.TransferToBank(ctx, &core.BankTransferInput{
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		AccountNumber: req.AccountNumber,
		SortCode:      req.SortCode,
		Narration:     req.Narration,
		CustomerID:    user.ProviderID,
		Metadata:      req.Metadata,
	})
	if err != nil {
		return s.settleFailed(ctx, tx, "gateway.TransferToBank", err)
	}

	return s.settled(ctx, tx, result.SessionID)
}

func (s *service) TagTransfer(ctx context.Context, req *core.TagTransferRequest) (*core.TransferResult, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	if _, err := govalidator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrValidation)
	}

	if req.Reference == "" {
		req.Reference = newReference()
	}

	if err := s.checkReference(ctx, req.Reference); err != nil {
		return nil, err
	}

	sender, err := s.users.Find(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}

	recipient, err := s.users.FindTag(ctx, req.Tag)
	if err != nil {
		return nil, fmt.Errorf("recipient %s: %w", req.Tag, err)
	}

	if sender.ID == recipient.ID {
		return nil, fmt.Errorf("cannot transfer to own tag: %w", core.ErrValidation)
	}

	wallet, err := s.spendableWallet(ctx, sender)
	if err != nil {
		return nil, err
	}

	to, err := s.wallets.FindUser(ctx, recipient.ID)
	if err != nil {
		return nil, fmt.Errorf("recipient wallet: %w", err)
	}

	if recipient.ProviderID == "" {
		return nil, fmt.Errorf("recipient %s has no settlement account: %w", req.Tag, core.ErrNotFound)
	}

	profile, err := core.FindLimitProfile(to.KycTier)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	if err := profile.CheckBalance(to.Balance, req.Amount); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	tx := &core.Transaction{
		Reference:   req.Reference,
		Amount:      req.Amount,
		Type:        core.TransactionTypeDebit,
		Kind:        core.KindTransfer,
		PaymentType: core.PaymentTypeWalletTransfer,
		Status:      core.TransactionStatusPending,
		UserID:      sender.ID,
		WalletID:    wallet.ID,
		Narration:   req.Narration,
		Metadata: map[string]string{
			core.MetaRecipientWalletID: to.ID,
			core.MetaRecipientUserID:   recipient.ID,
		},
	}

	state, err := s.reserve(ctx, wallet, tx)
	if err != nil {
		return s.result(state, tx, err)
	}

	if err := s.gateway.TransferCustomerToCustomer(ctx, &core.CustomerTransferInput{
		Reference:      tx.Reference,
		FromCustomerID: sender.ProviderID,
		ToCustomerID:   recipient.ProviderID,
		Amount:         tx.Amount,
	}); err != nil {
		return s.settleFailed(ctx, tx, "gateway.TransferCustomerToCustomer", err)
	}

	return s.settled(ctx, tx, "")
}

// settled finishes a transfer the rail confirmed. Until the hold is captured
// the caller gets the error with state SETTLED. Once it is, a failed recipient
// credit or fee enqueue is only logged with the reference.
func (s *service) settled(ctx context.Context, tx *core.Transaction, sessionID string) (*core.TransferResult, error) {
	state, err := s.complete(ctx, tx, sessionID)
	if state == core.TransferStateSettled {
		return s.result(state, tx, err)
	}

	return s.result(state, tx, nil)
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive: %w", core.ErrValidation)
	}

	return nil
}

func bankMetadata(req *core.BankTransferRequest) map[string]string {
	metadata := make(map[string]string, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	metadata[core.MetaAccountNumber] = req.AccountNumber
	metadata[core.MetaSortCode] = req.SortCode
	return metadata
}

func (s *service) checkReference(ctx context.Context, reference string) error {
	_, err := s.transactions.FindReference(ctx, reference)
	switch {
	case err == nil:
		return fmt.Errorf("reference %s already used: %w", reference, core.ErrConflict)
	case errors.Is(err, core.ErrNotFound):
		return nil
	default:
		s.logger.Error("transactions.FindReference", "reference", reference, "err", err)
		return err
	}
}

func (s *service) spendableWallet(ctx context.Context, user *core.User) (*core.Wallet, error) {
	wallet, err := s.wallets.FindUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if !wallet.Spendable() {
		return nil, fmt.Errorf("wallet %s is %s (frozen=%v): %w", wallet.ID, wallet.Status, wallet.Frozen, core.ErrValidation)
	}

	if user.ProviderID == "" {
		return nil, fmt.Errorf("user %s has no settlement account: %w", user.ID, core.ErrValidation)
	}

	return wallet, nil
}

// reserve runs the limit policy against today's spend, holds amount+fee and
// records the transfer as PENDING. It returns the state reached.
func (s *service) reserve(ctx context.Context, wallet *core.Wallet, tx *core.Transaction) (core.TransferState, error) {
	state := core.TransferStateInitiated

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	spent, err := s.transactions.SumDebits(ctx, tx.UserID, midnight)
	if err != nil {
		s.logger.Error("transactions.SumDebits", "user", tx.UserID, "err", err)
		return state, err
	}

	if err := core.CheckLimit(wallet.KycTier, tx.Amount, spent); err != nil {
		return state, err
	}

	state = core.TransferStateLimitChecked

	if _, err := s.wallets.Hold(ctx, wallet.ID, tx.Total()); err != nil {
		return state, err
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		if _, rerr := s.wallets.Release(ctx, wallet.ID, tx.Total()); rerr != nil {
			s.logger.Error("wallets.Release", "reference", tx.Reference, "err", rerr)
		}

		if !errors.Is(err, core.ErrConflict) {
			s.logger.Error("transactions.Create", "reference", tx.Reference, "err", err)
		}

		return state, err
	}

	return core.TransferStateFundsReserved, nil
}

// settleFailed handles a failed rail call. Explicit rejections release the
// hold; anything else leaves the transfer PENDING for the reconciler.
func (s *service) settleFailed(ctx context.Context, tx *core.Transaction, call string, cause error) (*core.TransferResult, error) {
	if errors.Is(cause, core.ErrProvider) {
		s.logger.Error(call, "reference", tx.Reference, "outcome", "rejected", "err", cause)
		if err := s.Fail(ctx, tx); err != nil {
			return s.result(core.TransferStateFundsReserved, tx, err)
		}

		return s.result(core.TransferStateFailed, tx, cause)
	}

	s.logger.Error(call, "reference", tx.Reference, "outcome", "ambiguous", "err", cause)
	if !errors.Is(cause, core.ErrAmbiguousOutcome) {
		cause = fmt.Errorf("%v: %w", cause, core.ErrAmbiguousOutcome)
	}

	return s.result(core.TransferStatePending, tx, cause)
}

func (s *service) result(state core.TransferState, tx *core.Transaction, err error) (*core.TransferResult, error) {
	metrics.RecordTransfer(string(tx.PaymentType), string(state), tx.Amount, state == core.TransferStateDone)

	if state == core.TransferStateInitiated || state == core.TransferStateLimitChecked {
		return nil, err
	}

	return &core.TransferResult{State: state, Transaction: tx}, err
}

func (s *service) Complete(ctx context.Context, tx *core.Transaction, sessionID string) error {
	_, err := s.complete(ctx, tx, sessionID)
	return err
}

// complete returns the last state it reached. The status update goes first so
// that only one caller ever captures the hold.
func (s *service) complete(ctx context.Context, tx *core.Transaction, sessionID string) (core.TransferState, error) {
	if err := pending(tx); err != nil {
		return core.TransferStateSettled, err
	}

	if sessionID != "" {
		tx.SessionID = sessionID
	}

	if err := s.transactions.UpdateStatus(ctx, tx, core.TransactionStatusCompleted); err != nil {
		s.logger.Error("transactions.UpdateStatus", "reference", tx.Reference, "err", err)
		return core.TransferStateSettled, err
	}

	if _, err := s.wallets.Capture(ctx, tx.WalletID, tx.Total()); err != nil {
		s.logger.Error("wallets.Capture", "reference", tx.Reference, "err", err)
		return core.TransferStateSettled, fmt.Errorf("capture hold of %s: %w", tx.Reference, err)
	}

	if tx.PaymentType == core.PaymentTypeWalletTransfer {
		if err := s.creditRecipient(ctx, tx); err != nil {
			return core.TransferStateRecorded, err
		}
	}

	if tx.Fee > 0 {
		if _, err := core.Enqueue(ctx, s.jobs, core.QueueChargeTransferFee, &core.ChargeTransferFee{
			WalletID:  tx.WalletID,
			UserID:    tx.UserID,
			Fee:       tx.Fee,
			Reference: tx.Reference,
		}, s.cfg.Jobs); err != nil {
			s.logger.Error("jobs.Create", "queue", core.QueueChargeTransferFee, "reference", tx.Reference, "err", err)
			return core.TransferStateRecorded, err
		}
	}

	s.notify(ctx, tx.Reference)
	return core.TransferStateDone, nil
}

func (s *service) creditRecipient(ctx context.Context, tx *core.Transaction) error {
	walletID := tx.Metadata[core.MetaRecipientWalletID]
	userID := tx.Metadata[core.MetaRecipientUserID]
	if walletID == "" {
		return nil
	}

	// the rail already moved the money, the local mirror follows it uncapped
	if _, err := s.wallets.Credit(ctx, walletID, tx.Amount, 0); err != nil {
		s.logger.Error("wallets.Credit", "reference", tx.Reference, "err", err)
		return err
	}

	credit := &core.Transaction{
		Reference:   creditReference(tx.Reference),
		Amount:      tx.Amount,
		Type:        core.TransactionTypeCredit,
		Kind:        core.KindTransfer,
		PaymentType: core.PaymentTypeWalletTransfer,
		Status:      core.TransactionStatusCompleted,
		UserID:      userID,
		WalletID:    walletID,
		SessionID:   tx.SessionID,
		Narration:   tx.Narration,
		Metadata:    map[string]string{core.MetaOrigin: tx.Reference},
	}

	if err := s.transactions.Create(ctx, credit); err != nil && !errors.Is(err, core.ErrConflict) {
		s.logger.Error("transactions.Create", "reference", credit.Reference, "err", err)
		return err
	}

	s.notify(ctx, credit.Reference)
	return nil
}

func (s *service) Fail(ctx context.Context, tx *core.Transaction) error {
	if err := pending(tx); err != nil {
		return err
	}

	if err := s.transactions.UpdateStatus(ctx, tx, core.TransactionStatusFailed); err != nil {
		s.logger.Error("transactions.UpdateStatus", "reference", tx.Reference, "err", err)
		return err
	}

	if _, err := s.wallets.Release(ctx, tx.WalletID, tx.Total()); err != nil {
		s.logger.Error("wallets.Release", "reference", tx.Reference, "err", err)
		return err
	}

	s.notify(ctx, tx.Reference)
	return nil
}

func pending(tx *core.Transaction) error {
	if tx.Status != core.TransactionStatusPending || tx.Kind != core.KindTransfer || tx.Type != core.TransactionTypeDebit {
		return fmt.Errorf("transaction %s is %s %s %s: %w", tx.Reference, tx.Kind, tx.Type, tx.Status, core.ErrConflict)
	}

	return nil
}

// notify is best effort, the transfer outcome is already recorded.
func (s *service) notify(ctx context.Context, reference string) {
	if _, err := core.Enqueue(ctx, s.jobs, core.QueueNotifyTransfer, &core.NotifyTransfer{Reference: reference}, s.cfg.Jobs); err != nil {
		s.logger.Error("jobs.Create", "queue", core.QueueNotifyTransfer, "reference", reference, "err", err)
	}
}
