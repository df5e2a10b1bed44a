package tasks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pandodao/tag-wallet/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountPayload(userID string) core.CreateAccount {
	return core.CreateAccount{
		FirstName:   "Ada",
		LastName:    "Obi",
		DateOfBirth: "1990-01-01",
		Email:       "ada@example.com",
		Address:     "1 Marina, Lagos",
		PhoneNumber: "08030000000",
		Bvn:         "22222222222",
		Tier:        "TIER_2",
		UserID:      userID,
	}
}

func TestProvisioner_Handle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := &core.User{ID: uuid.NewString(), Tag: "ada"}
	require.NoError(t, f.users.Create(ctx, u))

	task := NewProvisioner(f.users, f.wallets, f.gateway, f.logger)
	job := newJob(t, core.QueueCreateAccount, accountPayload(u.ID))
	require.NoError(t, task.Handle(ctx, job))

	w, err := f.wallets.FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, w.KycTier)
	assert.Equal(t, "pw-ada@example.com", w.ProviderWalletID)
	assert.Equal(t, "9012345678", w.AccountNumber)
	assert.Equal(t, core.WalletStatusActive, w.Status)
	assert.Zero(t, w.Balance)

	got, err := f.users.Find(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus-ada@example.com", got.ProviderID)

	created, err := f.users.AccountCreated(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, task.Handle(ctx, job), "existing wallet is a no-op")
	assert.Equal(t, 1, f.gateway.accounts)
}

func TestProvisioner_CustomerLinkedElsewhere(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	other := &core.User{ID: uuid.NewString(), Tag: "other", ProviderID: "cus-ada@example.com"}
	require.NoError(t, f.users.Create(ctx, other))
	u := &core.User{ID: uuid.NewString(), Tag: "ada"}
	require.NoError(t, f.users.Create(ctx, u))

	task := NewProvisioner(f.users, f.wallets, f.gateway, f.logger)
	err := task.Handle(ctx, newJob(t, core.QueueCreateAccount, accountPayload(u.ID)))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.wallets.FindUser(ctx, u.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	created, err := f.users.AccountCreated(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestProvisioner_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := NewProvisioner(f.users, f.wallets, f.gateway, f.logger)

	bad := accountPayload(uuid.NewString())
	bad.Email = "not-an-email"
	assert.ErrorIs(t, task.Handle(ctx, newJob(t, core.QueueCreateAccount, bad)), core.ErrValidation)

	assert.ErrorIs(t, task.Handle(ctx, newJob(t, core.QueueCreateAccount, accountPayload(uuid.NewString()))), core.ErrValidation, "unknown user")
	assert.ErrorIs(t, task.Handle(ctx, rawJob(core.QueueCreateAccount, `[]`)), core.ErrValidation)
	assert.Zero(t, f.gateway.accounts)
}

func TestParseTier(t *testing.T) {
	tier, err := parseTier("TIER_3")
	require.NoError(t, err)
	assert.Equal(t, 3, tier)

	_, err = parseTier("GOLD")
	assert.ErrorIs(t, err, core.ErrValidation)
}
