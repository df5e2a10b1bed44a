package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/store/storetest"
	"github.com/pandodao/tag-wallet/store/transaction"
	"github.com/pandodao/tag-wallet/store/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	core.SettlementGateway
	history []*core.RailTransaction
	err     error
}

func (f *fakeGateway) ListCustomerTransactions(context.Context, string) ([]*core.RailTransaction, error) {
	return f.history, f.err
}

type fakeTransfers struct {
	core.TransferService

	mu        sync.Mutex
	completed []string
	failed    []string
}

func (f *fakeTransfers) Complete(_ context.Context, tx *core.Transaction, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.completed = append(f.completed, tx.Reference)
	return nil
}

func (f *fakeTransfers) Fail(_ context.Context, tx *core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failed = append(f.failed, tx.Reference)
	return nil
}

func TestReconciler_Run(t *testing.T) {
	ctx := context.Background()
	db := storetest.Open(t)
	users := user.New(db)
	transactions := transaction.New(db)

	u := &core.User{ID: uuid.NewString(), Tag: "ada", ProviderID: "cus-ada"}
	require.NoError(t, users.Create(ctx, u))

	stale := time.Now().Add(-2 * time.Hour)
	pending := func(reference string, created time.Time, kind core.TransactionKind, typ core.TransactionType) {
		require.NoError(t, transactions.Create(ctx, &core.Transaction{
			CreatedAt:   created,
			Reference:   reference,
			Amount:      1000,
			Type:        typ,
			Kind:        kind,
			PaymentType: core.PaymentTypeInterBank,
			Status:      core.TransactionStatusPending,
			UserID:      u.ID,
			WalletID:    uuid.NewString(),
		}))
	}

	pending("TRF-SETTLED", stale, core.KindTransfer, core.TransactionTypeDebit)
	pending("TRF-LOST", stale, core.KindTransfer, core.TransactionTypeDebit)
	pending("TRF-INFLIGHT", stale, core.KindTransfer, core.TransactionTypeDebit)
	pending("TRF-FRESH", time.Now(), core.KindTransfer, core.TransactionTypeDebit)
	pending("FEE-TRF-X", stale, core.KindFee, core.TransactionTypeDebit)

	gateway := &fakeGateway{history: []*core.RailTransaction{
		{ID: "r1", Reference: "TRF-SETTLED", Completed: true},
		{ID: "r2", Reference: "TRF-INFLIGHT", Completed: false},
	}}
	transfers := &fakeTransfers{}

	w := New(users, transactions, transfers, gateway, slog.Default(), Config{})
	require.NoError(t, w.run(ctx))

	assert.Equal(t, []string{"TRF-SETTLED"}, transfers.completed)
	assert.Equal(t, []string{"TRF-LOST"}, transfers.failed)
}

func TestReconciler_NothingStale(t *testing.T) {
	db := storetest.Open(t)
	w := New(user.New(db), transaction.New(db), &fakeTransfers{}, &fakeGateway{}, slog.Default(), Config{Grace: time.Minute})
	assert.Error(t, w.run(context.Background()))
}

func TestReconciler_FeeBacklog(t *testing.T) {
	ctx := context.Background()
	db := storetest.Open(t)
	users := user.New(db)
	transactions := transaction.New(db)

	u := &core.User{ID: uuid.NewString(), Tag: "ada", ProviderID: "cus-ada"}
	require.NoError(t, users.Create(ctx, u))

	old := time.Now().Add(-48 * time.Hour)
	for i := 0; i < 70; i++ {
		require.NoError(t, transactions.Create(ctx, &core.Transaction{
			CreatedAt:   old.Add(-time.Duration(i) * time.Minute),
			Reference:   "FEE-" + uuid.NewString(),
			Amount:      10,
			Type:        core.TransactionTypeDebit,
			Kind:        core.KindFee,
			PaymentType: core.PaymentTypeInterBank,
			Status:      core.TransactionStatusPending,
			UserID:      u.ID,
			WalletID:    uuid.NewString(),
		}))
	}

	require.NoError(t, transactions.Create(ctx, &core.Transaction{
		CreatedAt:   old,
		Reference:   "TRF-SETTLED",
		Amount:      1000,
		Type:        core.TransactionTypeDebit,
		PaymentType: core.PaymentTypeInterBank,
		Status:      core.TransactionStatusPending,
		UserID:      u.ID,
		WalletID:    uuid.NewString(),
	}))

	gateway := &fakeGateway{history: []*core.RailTransaction{
		{ID: "r1", Reference: "TRF-SETTLED", Completed: true},
	}}
	transfers := &fakeTransfers{}

	w := New(users, transactions, transfers, gateway, slog.Default(), Config{})
	require.NoError(t, w.run(ctx))

	assert.Equal(t, []string{"TRF-SETTLED"}, transfers.completed)
	assert.Empty(t, transfers.failed)
}

func TestReconciler_IncompleteHistory(t *testing.T) {
	ctx := context.Background()
	db := storetest.Open(t)
	users := user.New(db)
	transactions := transaction.New(db)

	u := &core.User{ID: uuid.NewString(), Tag: "ada", ProviderID: "cus-ada"}
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, transactions.Create(ctx, &core.Transaction{
		CreatedAt:   time.Now().Add(-2 * time.Hour),
		Reference:   "TRF-UNKNOWN",
		Amount:      1000,
		Type:        core.TransactionTypeDebit,
		PaymentType: core.PaymentTypeInterBank,
		Status:      core.TransactionStatusPending,
		UserID:      u.ID,
		WalletID:    uuid.NewString(),
	}))

	gateway := &fakeGateway{err: errors.New("customer cus-ada history exceeds 50 pages")}
	transfers := &fakeTransfers{}

	w := New(users, transactions, transfers, gateway, slog.Default(), Config{})
	assert.Error(t, w.run(ctx))
	assert.Empty(t, transfers.failed)
	assert.Empty(t, transfers.completed)
}
