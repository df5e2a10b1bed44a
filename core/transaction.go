package core

import (
	"context"
	"time"
)

type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

type PaymentType string

const (
	PaymentTypeInterBank      PaymentType = "INTER_BANK"
	PaymentTypeWalletTransfer PaymentType = "WALLET_TRANSFER"
)

func (t PaymentType) Valid() bool {
	return t == PaymentTypeInterBank || t == PaymentTypeWalletTransfer
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
)

// TransactionKind separates user transfers from the rows the workers write.
type TransactionKind string

const (
	KindTransfer TransactionKind = "transfer"
	// KindFee rows mirror a fee already captured with its transfer; they never count as spend.
	KindFee      TransactionKind = "fee"
	KindMigrated TransactionKind = "migrated"
)

// Metadata keys written by the orchestrator and read back by the reconciler.
const (
	MetaRecipientWalletID = "recipient_wallet_id"
	MetaRecipientUserID   = "recipient_user_id"
	MetaAccountNumber     = "account_number"
	MetaSortCode          = "sort_code"
	MetaOrigin            = "origin"
)

type Transaction struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Reference   string            `json:"reference"`
	Amount      int64             `json:"amount"`
	Fee         int64             `json:"fee"`
	Type        TransactionType   `json:"type"`
	Kind        TransactionKind   `json:"kind"`
	PaymentType PaymentType       `json:"payment_type"`
	Status      TransactionStatus `json:"status"`
	UserID      string            `json:"user_id"`
	WalletID    string            `json:"wallet_id"`
	SessionID   string            `json:"session_id,omitempty"`
	Narration   string            `json:"narration,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Total is what the transaction takes out of (or puts into) the wallet.
func (t *Transaction) Total() int64 {
	return t.Amount + t.Fee
}

type TransactionFilter struct {
	UserID       string
	PaymentTypes []PaymentType
	Limit        int
}

type TransactionStore interface {
	// Create fails with ErrConflict when the reference is taken.
	Create(ctx context.Context, tx *Transaction) error
	FindReference(ctx context.Context, reference string) (*Transaction, error)
	// UpdateStatus moves tx from its current status to `to`, optimistic on the current status.
	UpdateStatus(ctx context.Context, tx *Transaction, to TransactionStatus) error
	List(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)
	// ListStale returns the oldest PENDING transfer debits created before `before`.
	ListStale(ctx context.Context, before time.Time, limit int) ([]*Transaction, error)
	// SumDebits adds amount+fee of the user's pending and completed debits since,
	// fee rows excluded.
	SumDebits(ctx context.Context, userID string, since time.Time) (int64, error)
}
