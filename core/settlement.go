package core

import (
	"context"
	"time"
)

type BankTransferInput struct {
	Reference     string
	Amount        int64
	AccountNumber string
	SortCode      string
	Narration     string
	CustomerID    string
	Metadata      map[string]string
}

type BankTransferResult struct {
	Status    bool
	Reference string
	SessionID string
}

type WalletTransferInput struct {
	Reference    string
	FromWalletID string
	ToWalletID   string
	Amount       int64
}

type CustomerTransferInput struct {
	Reference      string
	FromCustomerID string
	ToCustomerID   string
	Amount         int64
}

type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type BankAccount struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	SortCode      string `json:"sort_code"`
}

type AccountProfile struct {
	FirstName   string
	LastName    string
	DateOfBirth string
	Email       string
	PhoneNumber string
	Address     string
	Bvn         string
	Tier        string
}

type ExternalAccount struct {
	WalletID         string
	CustomerID       string
	AccountName      string
	AccountNumber    string
	BankCode         string
	BankName         string
	AccountReference string
}

type RailBalance struct {
	Balance          int64
	LedgerBalance    int64
	AvailableBalance int64
	HoldBalance      int64
	Currency         string
}

type RailTransaction struct {
	ID          string
	Reference   string
	Type        TransactionType
	Category    string
	Amount      int64
	Description string
	Completed   bool
	CreatedAt   time.Time
}

// SettlementGateway is the external core-banking rail. Transfer calls return
// ErrProvider when the rail rejects them and ErrAmbiguousOutcome when the
// outcome is unknown.
type SettlementGateway interface {
	TransferToBank(ctx context.Context, input *BankTransferInput) (*BankTransferResult, error)
	TransferWalletToWallet(ctx context.Context, input *WalletTransferInput) error
	TransferCustomerToCustomer(ctx context.Context, input *CustomerTransferInput) error
	ResolveBankAccount(ctx context.Context, sortCode, accountNumber string) (*BankAccount, error)
	ListBanks(ctx context.Context) ([]*Bank, error)
	CreateExternalAccount(ctx context.Context, profile *AccountProfile) (*ExternalAccount, error)
	GetWalletBalance(ctx context.Context, walletID string) (*RailBalance, error)
	ListCustomerTransactions(ctx context.Context, customerID string) ([]*RailTransaction, error)
}

type BankService interface {
	ListBanks(ctx context.Context) ([]*Bank, error)
	ResolveAccount(ctx context.Context, sortCode, accountNumber string) (*BankAccount, error)
}
