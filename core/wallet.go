package core

import (
	"context"
	"time"
)

type WalletStatus string

const (
	WalletStatusActive   WalletStatus = "active"
	WalletStatusOpen     WalletStatus = "open"
	WalletStatusBlocked  WalletStatus = "blocked"
	WalletStatusInactive WalletStatus = "inactive"
)

// Wallet balances are minor currency units. Balance and LedgerBalance carry the
// settled funds, HoldBalance the funds reserved by in-flight transfers and
// AvailableBalance = LedgerBalance - HoldBalance.
type Wallet struct {
	ID               string       `json:"id"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	UserID           string       `json:"user_id"`
	Balance          int64        `json:"balance"`
	LedgerBalance    int64        `json:"ledger_balance"`
	HoldBalance      int64        `json:"hold_balance"`
	AvailableBalance int64        `json:"available_balance"`
	Currency         string       `json:"currency"`
	Status           WalletStatus `json:"status"`
	Frozen           bool         `json:"frozen"`
	KycTier          int          `json:"kyc_tier"`
	ProviderWalletID string       `json:"provider_wallet_id"`
	AccountName      string       `json:"account_name"`
	AccountNumber    string       `json:"account_number"`
	BankCode         string       `json:"bank_code"`
	BankName         string       `json:"bank_name"`
	AccountReference string       `json:"account_reference"`
}

// Spendable reports whether the wallet may be debited at all.
func (w *Wallet) Spendable() bool {
	return !w.Frozen && (w.Status == WalletStatusActive || w.Status == WalletStatusOpen)
}

type WalletStore interface {
	// Create fails with ErrConflict if the user already owns a wallet.
	Create(ctx context.Context, wallet *Wallet) error
	// Provision creates the wallet, binds the rail customer id to the user and
	// ticks the account-created onboarding flag in one transaction.
	Provision(ctx context.Context, wallet *Wallet, customerID string) error
	Find(ctx context.Context, id string) (*Wallet, error)
	FindUser(ctx context.Context, userID string) (*Wallet, error)
	// Debit fails with ErrInsufficientFunds if available < amount + fee.
	Debit(ctx context.Context, id string, amount, fee int64) (*Wallet, error)
	// Credit fails with ErrLimitExceeded if maxBalance > 0 and the credit passes it.
	Credit(ctx context.Context, id string, amount, maxBalance int64) (*Wallet, error)
	// Hold reserves amount from available funds, ErrInsufficientFunds otherwise.
	Hold(ctx context.Context, id string, amount int64) (*Wallet, error)
	// Release returns a hold to available funds.
	Release(ctx context.Context, id string, amount int64) (*Wallet, error)
	// Capture turns a hold into a debit of the settled balance.
	Capture(ctx context.Context, id string, amount int64) (*Wallet, error)
	// Sync overwrites the settled balance with the rail's figures.
	Sync(ctx context.Context, id string, balance, ledgerBalance int64) (*Wallet, error)
}

type WalletService interface {
	Balance(ctx context.Context, userID string, refresh bool) (*Wallet, error)
}
