package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/pandodao/tag-wallet/core"
)

// Provisioner opens the rail account of a user and stores the wallet it returns.
type Provisioner struct {
	users   core.UserStore
	wallets core.WalletStore
	gateway core.SettlementGateway
	logger  *slog.Logger
}

func NewProvisioner(
	users core.UserStore,
	wallets core.WalletStore,
	gateway core.SettlementGateway,
	logger *slog.Logger,
) *Provisioner {
	return &Provisioner{
		users:   users,
		wallets: wallets,
		gateway: gateway,
		logger:  logger.With("task", core.QueueCreateAccount),
	}
}

func (t *Provisioner) Handle(ctx context.Context, job *core.Job) error {
	var p core.CreateAccount
	if err := decode(job, &p); err != nil {
		return err
	}

	if _, err := govalidator.ValidateStruct(p); err != nil {
		return fmt.Errorf("create account payload: %v: %w", err, core.ErrValidation)
	}

	logger := t.logger.With("user", p.UserID)

	if _, err := t.wallets.FindUser(ctx, p.UserID); err == nil {
		logger.Debug("wallet already provisioned")
		return nil
	} else if !errors.Is(err, core.ErrNotFound) {
		logger.Error("wallets.FindUser", "err", err)
		return err
	}

	if _, err := t.users.Find(ctx, p.UserID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("user %s: %w", p.UserID, core.ErrValidation)
		}

		logger.Error("users.Find", "err", err)
		return err
	}

	tier, err := parseTier(p.Tier)
	if err != nil {
		return err
	}

	account, err := t.gateway.CreateExternalAccount(ctx, &core.AccountProfile{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DateOfBirth: p.DateOfBirth,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		Address:     p.Address,
		Bvn:         p.Bvn,
		Tier:        p.Tier,
	})
	if err != nil {
		logger.Error("gateway.CreateExternalAccount", "err", err)
		return err
	}

	wallet := &core.Wallet{
		ID:               uuid.NewString(),
		UserID:           p.UserID,
		Status:           core.WalletStatusActive,
		KycTier:          tier,
		ProviderWalletID: account.WalletID,
		AccountName:      account.AccountName,
		AccountNumber:    account.AccountNumber,
		BankCode:         account.BankCode,
		BankName:         account.BankName,
		AccountReference: account.AccountReference,
	}

	if err := t.wallets.Provision(ctx, wallet, account.CustomerID); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return t.conflict(ctx, logger, p.UserID, err)
		}

		logger.Error("wallets.Provision", "err", err)
		return err
	}

	logger.Info("wallet provisioned", "wallet", wallet.ID, "account_number", wallet.AccountNumber)
	return nil
}

// conflict tells a concurrent provision of the same user apart from a rail
// customer already linked to someone else.
func (t *Provisioner) conflict(ctx context.Context, logger *slog.Logger, userID string, cause error) error {
	_, err := t.wallets.FindUser(ctx, userID)
	switch {
	case err == nil:
		logger.Info("wallet provisioned concurrently")
		return nil
	case errors.Is(err, core.ErrNotFound):
		logger.Error("wallets.Provision", "err", cause)
		return fmt.Errorf("provision user %s: %v: %w", userID, cause, core.ErrValidation)
	default:
		logger.Error("wallets.FindUser", "err", err)
		return err
	}
}

func parseTier(s string) (int, error) {
	tier, err := strconv.Atoi(strings.TrimPrefix(s, "TIER_"))
	if err != nil || tier < 1 {
		return 0, fmt.Errorf("tier %q: %w", s, core.ErrValidation)
	}

	return tier, nil
}
