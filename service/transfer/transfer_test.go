package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/store/job"
	"github.com/pandodao/tag-wallet/store/storetest"
	"github.com/pandodao/tag-wallet/store/transaction"
	"github.com/pandodao/tag-wallet/store/user"
	"github.com/pandodao/tag-wallet/store/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	core.SettlementGateway

	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakeGateway) TransferToBank(_ context.Context, input *core.BankTransferInput) (*core.BankTransferResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, input.Reference)
	if f.err != nil {
		return nil, f.err
	}

	return &core.BankTransferResult{Status: true, Reference: input.Reference, SessionID: "session-" + input.Reference}, nil
}

func (f *fakeGateway) TransferCustomerToCustomer(_ context.Context, input *core.CustomerTransferInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, input.Reference)
	return f.err
}

type failingCapture struct {
	core.WalletStore
}

func (failingCapture) Capture(context.Context, string, int64) (*core.Wallet, error) {
	return nil, errors.New("database is locked")
}

type fixture struct {
	users        core.UserStore
	wallets      core.WalletStore
	transactions core.TransactionStore
	jobs         core.JobStore
	gateway      *fakeGateway
	transfers    core.TransferService
}

func newFixture(t *testing.T) *fixture {
	db := storetest.Open(t)
	f := &fixture{
		users:        user.New(db),
		wallets:      wallet.New(db),
		transactions: transaction.New(db),
		jobs:         job.New(db),
		gateway:      &fakeGateway{},
	}

	f.transfers = New(f.users, f.wallets, f.transactions, f.jobs, f.gateway, slog.Default(), Config{Jobs: core.DefaultJobOptions})
	return f
}

func (f *fixture) account(t *testing.T, tag string, tier int, balance int64) *core.Wallet {
	ctx := context.Background()
	u := &core.User{ID: uuid.NewString(), Tag: tag, ProviderID: "cus-" + tag}
	require.NoError(t, f.users.Create(ctx, u))

	w := &core.Wallet{
		ID:            uuid.NewString(),
		UserID:        u.ID,
		Balance:       balance,
		LedgerBalance: balance,
		KycTier:       tier,
		Status:        core.WalletStatusActive,
	}
	require.NoError(t, f.wallets.Create(ctx, w))
	return w
}

func (f *fixture) wallet(t *testing.T, id string) *core.Wallet {
	w, err := f.wallets.Find(context.Background(), id)
	require.NoError(t, err)
	return w
}

func (f *fixture) jobsIn(t *testing.T, queue string) []*core.Job {
	jobs, err := f.jobs.List(context.Background(), queue, "", 0)
	require.NoError(t, err)
	return jobs
}

func bankRequest(w *core.Wallet, reference string, amount int64) *core.BankTransferRequest {
	return &core.BankTransferRequest{
		UserID:        w.UserID,
		Reference:     reference,
		Amount:        amount,
		AccountNumber: "0123456789",
		SortCode:      "058",
		Narration:     "rent",
	}
}

func TestBankTransfer_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada", 1, 100000)

	result, err := f.transfers.BankTransfer(ctx, bankRequest(w, "TRF-1", 15000))
	require.NoError(t, err)
	assert.Equal(t, core.TransferStateDone, result.State)

	got := f.wallet(t, w.ID)
	assert.Equal(t, int64(84975), got.Balance)
	assert.Equal(t, int64(84975), got.AvailableBalance)
	assert.Zero(t, got.HoldBalance)

	tx, err := f.transactions.FindReference(ctx, "TRF-1")
	require.NoError(t, err)
	assert.Equal(t, core.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, int64(15000), tx.Amount)
	assert.Equal(t, int64(25), tx.Fee)
	assert.Equal(t, "session-TRF-1", tx.SessionID)
	assert.Equal(t, "058", tx.Metadata[core.MetaSortCode])

	fees := f.jobsIn(t, core.QueueChargeTransferFee)
	require.Len(t, fees, 1)
	var payload core.ChargeTransferFee
	require.NoError(t, json.Unmarshal(fees[0].Payload, &payload))
	assert.Equal(t, core.ChargeTransferFee{WalletID: w.ID, UserID: w.UserID, Fee: 25, Reference: "TRF-1"}, payload)

	assert.Len(t, f.jobsIn(t, core.QueueNotifyTransfer), 1)
}

func TestBankTransfer_CaptureFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada", 1, 100000)

	transfers := New(f.users, failingCapture{f.wallets}, f.transactions, f.jobs, f.gateway, slog.Default(), Config{Jobs: core.DefaultJobOptions})
	result, err := transfers.BankTransfer(ctx, bankRequest(w, "TRF-1", 15000))
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, core.TransferStateSettled, result.State)

	tx, err := f.transactions.FindReference(ctx, "TRF-1")
	require.NoError(t, err)
	assert.Equal(t, core.TransactionStatusCompleted, tx.Status)

	got := f.wallet(t, w.ID)
	assert.Equal(t, int64(100000), got.Balance)
	assert.Equal(t, int64(15025), got.HoldBalance)
	assert.Empty(t, f.jobsIn(t, core.QueueChargeTransferFee))
}

func TestBankTransfer_GeneratesReference(t *testing.T) {
	f := newFixture(t)
	w := f.account(t, "ada", 1, 100000)

	result, err := f.transfers.BankTransfer(context.Background(), bankRequest(w, "", 1000))
	require.NoError(t, err)
	assert.Regexp(t, `^TRF-[0-9a-f-]{36}$`, result.Transaction.Reference)
}

func TestBankTransfer_DuplicateReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada", 1, 100000)

	_, err := f.transfers.BankTransfer(ctx, bankRequest(w, "TRF-1", 15000))
	require.NoError(t, err)

	_, err = f.transfers.BankTransfer(ctx, bankRequest(w, "TRF-1", 15000))
	assert.ErrorIs(t, err, core.ErrConflict)

	assert.Len(t, f.gateway.calls, 1)
	assert.Equal(t, int64(84975), f.wallet(t, w.ID).Balance)

	txs, err := f.transactions.List(ctx, core.TransactionFilter{UserID: w.UserID})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestBankTransfer_LimitExceeded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada", 1, 100000)

	_, err := f.transfers.BankTransfer(ctx, bankRequest(w, "TRF-1", 25000))
	assert.ErrorIs(t, err, core.ErrLimitExceeded)

	got := f.wallet(t, w.ID)
	assert.Equal(t, int64(100000), got.Balance)
	assert.Equal(t, int64(100000), got.AvailableBalance)
	assert.Empty(t, f.gateway.calls)

	_, err = f.transactions.FindReference(ctx, "TRF-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBankTransfer_DailyLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada", 1, 100000)

	// tier 1 allows 50000 a day, fees included
	for _, ref := range []string{"A", "B"} {
		_, err := f.transfers.BankTransfer(ctx, bankRequest(w, ref, 20000))
		require.NoError(t, err)
	}

	_, err := f.transfers.BankTransfer(ctx, bankRequest(w, "C", 10000))
	assert.ErrorIs(t, err, core.ErrLimitExceeded)

	_, err = f.transfers.BankTransfer(ctx, bankRequest(w, "D", 9000))
	require.NoError(t, err)
}

func TestBankTransfer_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	w := f.account(t, "ada", 1, 15010)

	_, err := f.transfers.BankTransfer(context.Background(), bankRequest(w, "TRF-1", 15000))
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
	assert.Empty(t, f.gateway.calls)
	assert.Equal(t, int64(15010), f.wallet(t, w.ID).AvailableBalance)
}

func TestBankTransfer_ProviderFailureCompensates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada", 1, 100000)
	f.gateway.err = errors.Join(errors.New("beneficiary bank unavailable"), core.ErrProvider)

	result, err := f.transfers.BankTransfer(ctx, bankRequest(w, "TRF-1", 15000))
	assert.ErrorIs(t, err, core.ErrProvider)
	require.NotNil(t, result)
	assert.Equal(t, core.TransferStateFailed, result.State)

	got := f.wallet(t, w.ID)
	assert.Equal(t, int64(100000), got.Balance)
	assert.Equal(t, int64(100000), got.AvailableBalance)
	assert.Zero(t, got.HoldBalance)

	tx, err := f.transactions.FindReference(ctx, "TRF-1")
	require.NoError(t, err)
	assert.Equal(t, core.TransactionStatusFailed, tx.Status)
	assert.Empty(t, f.jobsIn(t, core.QueueChargeTransferFee))
}

func TestBankTransfer_AmbiguousKeepsHold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada", 1, 100000)
	f.gateway.err = context.DeadlineExceeded

	result, err := f.transfers.BankTransfer(ctx, bankRequest(w, "TRF-1", 15000))
	assert.ErrorIs(t, err, core.ErrAmbiguousOutcome)
	require.NotNil(t, result)
	assert.Equal(t, core.TransferStatePending, result.State)

	got := f.wallet(t, w.ID)
	assert.Equal(t, int64(100000), got.Balance)
	assert.Equal(t, int64(15025), got.HoldBalance)
	assert.Equal(t, int64(84975), got.AvailableBalance)

	tx, err := f.transactions.FindReference(ctx, "TRF-1")
	require.NoError(t, err)
	assert.Equal(t, core.TransactionStatusPending, tx.Status)

	// the reconciler later learns the rail settled it
	require.NoError(t, f.transfers.Complete(ctx, tx, "late-session"))
	got = f.wallet(t, w.ID)
	assert.Equal(t, int64(84975), got.Balance)
	assert.Zero(t, got.HoldBalance)
	assert.Len(t, f.jobsIn(t, core.QueueChargeTransferFee), 1)

	// resolving twice is rejected by the status guard
	assert.ErrorIs(t, f.transfers.Fail(ctx, tx), core.ErrConflict)
	assert.Equal(t, int64(84975), f.wallet(t, w.ID).Balance)
}

func TestBankTransfer_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada", 2, 100000)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)

	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.transfers.BankTransfer(ctx, bankRequest(w, uuid.NewString(), 60000))
		}(i)
	}

	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, core.ErrInsufficientFunds):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, int64(100000-60000-core.TransferFee(60000)), f.wallet(t, w.ID).Balance)
}

func TestBankTransfer_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada", 1, 100000)

	for name, req := range map[string]*core.BankTransferRequest{
		"zero amount":      bankRequest(w, "A", 0),
		"negative amount":  bankRequest(w, "B", -5),
		"missing account":  {UserID: w.UserID, Amount: 100, SortCode: "058"},
		"non numeric":      {UserID: w.UserID, Amount: 100, SortCode: "058", AccountNumber: "01234abc"},
		"missing sortcode": {UserID: w.UserID, Amount: 100, AccountNumber: "0123456789"},
	} {
		_, err := f.transfers.BankTransfer(ctx, req)
		assert.ErrorIs(t, err, core.ErrValidation, name)
	}

	assert.Empty(t, f.gateway.calls)
}

func TestBankTransfer_FrozenWallet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u := &core.User{ID: uuid.NewString(), Tag: "ice", ProviderID: "cus-ice"}
	require.NoError(t, f.users.Create(ctx, u))
	w := &core.Wallet{ID: uuid.NewString(), UserID: u.ID, Balance: 5000, LedgerBalance: 5000, KycTier: 1, Frozen: true}
	require.NoError(t, f.wallets.Create(ctx, w))

	_, err := f.transfers.BankTransfer(ctx, bankRequest(w, "A", 100))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestTagTransfer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sender := f.account(t, "ada", 1, 100000)
	recipient := f.account(t, "grace", 1, 1000)

	result, err := f.transfers.TagTransfer(ctx, &core.TagTransferRequest{
		UserID:    sender.UserID,
		Reference: "TAG-1",
		Amount:    15000,
		Tag:       "grace",
	})
	require.NoError(t, err)
	assert.Equal(t, core.TransferStateDone, result.State)

	assert.Equal(t, int64(85000), f.wallet(t, sender.ID).Balance)
	assert.Equal(t, int64(16000), f.wallet(t, recipient.ID).Balance)

	debit, err := f.transactions.FindReference(ctx, "TAG-1")
	require.NoError(t, err)
	assert.Equal(t, core.TransactionStatusCompleted, debit.Status)
	assert.Zero(t, debit.Fee)

	credit, err := f.transactions.FindReference(ctx, "TAG-1-CR")
	require.NoError(t, err)
	assert.Equal(t, core.TransactionTypeCredit, credit.Type)
	assert.Equal(t, recipient.UserID, credit.UserID)
	assert.Equal(t, "TAG-1", credit.Metadata[core.MetaOrigin])

	assert.Empty(t, f.jobsIn(t, core.QueueChargeTransferFee))
}

func TestTagTransfer_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sender := f.account(t, "ada", 1, 100000)
	f.account(t, "full", 1, 295000)

	_, err := f.transfers.TagTransfer(ctx, &core.TagTransferRequest{UserID: sender.UserID, Amount: 100, Tag: "nobody"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.transfers.TagTransfer(ctx, &core.TagTransferRequest{UserID: uuid.NewString(), Amount: 100, Tag: "ada"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.transfers.TagTransfer(ctx, &core.TagTransferRequest{UserID: sender.UserID, Amount: 100, Tag: "ada"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.transfers.TagTransfer(ctx, &core.TagTransferRequest{UserID: sender.UserID, Amount: 10000, Tag: "full"})
	assert.ErrorIs(t, err, core.ErrLimitExceeded)

	assert.Empty(t, f.gateway.calls)
	assert.Equal(t, int64(100000), f.wallet(t, sender.ID).AvailableBalance)
}

func TestTagTransfer_ProviderFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sender := f.account(t, "ada", 1, 100000)
	recipient := f.account(t, "grace", 1, 0)
	f.gateway.err = core.ErrProvider

	_, err := f.transfers.TagTransfer(ctx, &core.TagTransferRequest{UserID: sender.UserID, Reference: "TAG-1", Amount: 5000, Tag: "grace"})
	assert.ErrorIs(t, err, core.ErrProvider)

	assert.Equal(t, int64(100000), f.wallet(t, sender.ID).AvailableBalance)
	assert.Zero(t, f.wallet(t, recipient.ID).Balance)

	tx, err := f.transactions.FindReference(ctx, "TAG-1")
	require.NoError(t, err)
	assert.Equal(t, core.TransactionStatusFailed, tx.Status)

	_, err = f.transactions.FindReference(ctx, "TAG-1-CR")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
