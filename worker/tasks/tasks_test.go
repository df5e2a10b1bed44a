package tasks

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/store/property"
	"github.com/pandodao/tag-wallet/store/storetest"
	"github.com/pandodao/tag-wallet/store/transaction"
	"github.com/pandodao/tag-wallet/store/user"
	"github.com/pandodao/tag-wallet/store/wallet"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	core.SettlementGateway

	mu        sync.Mutex
	failures  []error
	transfers []*core.WalletTransferInput
	history   []*core.RailTransaction
	accounts  int
}

func (f *fakeGateway) TransferWalletToWallet(_ context.Context, input *core.WalletTransferInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.transfers = append(f.transfers, input)
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return err
	}

	return nil
}

func (f *fakeGateway) ListCustomerTransactions(context.Context, string) ([]*core.RailTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.history, nil
}

func (f *fakeGateway) CreateExternalAccount(_ context.Context, profile *core.AccountProfile) (*core.ExternalAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.accounts++
	return &core.ExternalAccount{
		WalletID:         "pw-" + profile.Email,
		CustomerID:       "cus-" + profile.Email,
		AccountName:      profile.FirstName + " " + profile.LastName,
		AccountNumber:    "9012345678",
		BankCode:         "999",
		BankName:         "TagPay",
		AccountReference: "acct-ref",
	}, nil
}

type fixture struct {
	users        core.UserStore
	wallets      core.WalletStore
	transactions core.TransactionStore
	properties   core.PropertyStore
	gateway      *fakeGateway
	logger       *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	db := storetest.Open(t)
	return &fixture{
		users:        user.New(db),
		wallets:      wallet.New(db),
		transactions: transaction.New(db),
		properties:   property.New(db),
		gateway:      &fakeGateway{},
		logger:       slog.Default(),
	}
}

func (f *fixture) account(t *testing.T, tag string) *core.Wallet {
	ctx := context.Background()
	u := &core.User{ID: uuid.NewString(), Tag: tag, ProviderID: "cus-" + tag}
	require.NoError(t, f.users.Create(ctx, u))

	w := &core.Wallet{
		ID:               uuid.NewString(),
		UserID:           u.ID,
		Balance:          100000,
		LedgerBalance:    100000,
		KycTier:          1,
		Status:           core.WalletStatusActive,
		ProviderWalletID: "pw-" + tag,
	}
	require.NoError(t, f.wallets.Create(ctx, w))
	return w
}

func newJob(t *testing.T, queue string, payload any) *core.Job {
	job, err := core.NewJob(queue, payload, core.DefaultJobOptions)
	require.NoError(t, err)
	return job
}

func rawJob(queue, payload string) *core.Job {
	return &core.Job{ID: uuid.NewString(), Queue: queue, Payload: json.RawMessage(payload)}
}
