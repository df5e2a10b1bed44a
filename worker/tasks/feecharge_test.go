package tasks

import (
	"context"
	"testing"

	"github.com/pandodao/tag-wallet/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feeCharger(f *fixture) *FeeCharger {
	return NewFeeCharger(f.users, f.wallets, f.transactions, f.gateway, f.logger, FeeChargerConfig{FeeWalletID: "pw-fees"})
}

func TestFeeCharger_RetriesLeaveOneDebit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada")
	f.gateway.failures = []error{core.ErrProvider, core.ErrProvider}

	task := feeCharger(f)
	job := newJob(t, core.QueueChargeTransferFee, core.ChargeTransferFee{WalletID: w.ID, UserID: w.UserID, Fee: 25, Reference: "TRF-1"})

	require.ErrorIs(t, task.Handle(ctx, job), core.ErrProvider)
	require.ErrorIs(t, task.Handle(ctx, job), core.ErrProvider)
	require.NoError(t, task.Handle(ctx, job))
	require.NoError(t, task.Handle(ctx, job), "completed fee is a no-op")

	require.Len(t, f.gateway.transfers, 3)
	for _, input := range f.gateway.transfers {
		assert.Equal(t, &core.WalletTransferInput{Reference: "FEE-TRF-1", FromWalletID: "pw-ada", ToWalletID: "pw-fees", Amount: 25}, input)
	}

	txs, err := f.transactions.List(ctx, core.TransactionFilter{UserID: w.UserID})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "FEE-TRF-1", txs[0].Reference)
	assert.Equal(t, core.KindFee, txs[0].Kind)
	assert.Equal(t, core.TransactionStatusCompleted, txs[0].Status)
	assert.Equal(t, int64(25), txs[0].Amount)
	assert.Equal(t, "TRF-1", txs[0].Metadata[core.MetaOrigin])

	spent, err := f.transactions.SumDebits(ctx, w.UserID, txs[0].CreatedAt.Add(-1))
	require.NoError(t, err)
	assert.Zero(t, spent, "fee rows are not spend")
}

func TestFeeCharger_AmbiguousAlreadySettled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.account(t, "ada")
	f.gateway.failures = []error{core.ErrAmbiguousOutcome}

	task := feeCharger(f)
	job := newJob(t, core.QueueChargeTransferFee, core.ChargeTransferFee{WalletID: w.ID, UserID: w.UserID, Fee: 10, Reference: "TRF-2"})
	require.ErrorIs(t, task.Handle(ctx, job), core.ErrAmbiguousOutcome)

	// the rail did move the fee
	f.gateway.history = []*core.RailTransaction{{ID: "r1", Reference: "FEE-TRF-2", Amount: 10, Completed: true}}
	require.NoError(t, task.Handle(ctx, job))
	assert.Len(t, f.gateway.transfers, 1, "no second send")

	tx, err := f.transactions.FindReference(ctx, "FEE-TRF-2")
	require.NoError(t, err)
	assert.Equal(t, core.TransactionStatusCompleted, tx.Status)
}

func TestFeeCharger_BadPayload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := feeCharger(f)

	assert.ErrorIs(t, task.Handle(ctx, rawJob(core.QueueChargeTransferFee, `{"fee":"x"}`)), core.ErrValidation)
	assert.ErrorIs(t, task.Handle(ctx, newJob(t, core.QueueChargeTransferFee, core.ChargeTransferFee{Reference: "TRF-3"})), core.ErrValidation)
	assert.Empty(t, f.gateway.transfers)
}

func TestNewFeeCharger_RequiresFeeWallet(t *testing.T) {
	f := newFixture(t)
	assert.Panics(t, func() {
		NewFeeCharger(f.users, f.wallets, f.transactions, f.gateway, f.logger, FeeChargerConfig{})
	})
}
