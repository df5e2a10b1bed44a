package wallet

import (
	"github.com/pandodao/tag-wallet/core"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

var columns = []string{
	"id",
	"created_at",
	"updated_at",
	"user_id",
	"balance",
	"ledger_balance",
	"hold_balance",
	"available_balance",
	"currency",
	"status",
	"frozen",
	"kyc_tier",
	"provider_wallet_id",
	"account_name",
	"account_number",
	"bank_code",
	"bank_name",
	"account_reference",
}

func values(w *core.Wallet) []interface{} {
	return []interface{}{
		w.ID,
		w.CreatedAt,
		w.UpdatedAt,
		w.UserID,
		w.Balance,
		w.LedgerBalance,
		w.HoldBalance,
		w.AvailableBalance,
		w.Currency,
		w.Status,
		w.Frozen,
		w.KycTier,
		w.ProviderWalletID,
		w.AccountName,
		w.AccountNumber,
		w.BankCode,
		w.BankName,
		w.AccountReference,
	}
}

func scanWallet(scanner scanner, w *core.Wallet) error {
	return scanner.Scan(
		&w.ID,
		&w.CreatedAt,
		&w.UpdatedAt,
		&w.UserID,
		&w.Balance,
		&w.LedgerBalance,
		&w.HoldBalance,
		&w.AvailableBalance,
		&w.Currency,
		&w.Status,
		&w.Frozen,
		&w.KycTier,
		&w.ProviderWalletID,
		&w.AccountName,
		&w.AccountNumber,
		&w.BankCode,
		&w.BankName,
		&w.AccountReference,
	)
}
