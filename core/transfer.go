package core

import "context"

// TransferState is the step a transfer reached in the orchestrator.
type TransferState string

const (
	TransferStateInitiated     TransferState = "INITIATED"
	TransferStateLimitChecked  TransferState = "LIMIT_CHECKED"
	TransferStateFundsReserved TransferState = "FUNDS_RESERVED"
	TransferStateSettled       TransferState = "SETTLED"
	TransferStateRecorded      TransferState = "RECORDED"
	TransferStateFeeEnqueued   TransferState = "FEE_ENQUEUED"
	TransferStateDone          TransferState = "DONE"
	TransferStatePending       TransferState = "PENDING"
	TransferStateFailed        TransferState = "FAILED"
)

type BankTransferRequest struct {
	UserID        string            `json:"user_id" valid:"required"`
	Reference     string            `json:"reference"`
	Amount        int64             `json:"amount"`
	AccountNumber string            `json:"account_number" valid:"required,numeric"`
	SortCode      string            `json:"sort_code" valid:"required"`
	Narration     string            `json:"narration"`
	Metadata      map[string]string `json:"metadata"`
}

type TagTransferRequest struct {
	UserID    string `json:"user_id" valid:"required"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Tag       string `json:"tag" valid:"required"`
	Narration string `json:"narration"`
}

type TransferResult struct {
	State       TransferState `json:"state"`
	Transaction *Transaction  `json:"transaction"`
}

type TransferService interface {
	BankTransfer(ctx context.Context, req *BankTransferRequest) (*TransferResult, error)
	TagTransfer(ctx context.Context, req *TagTransferRequest) (*TransferResult, error)
	// Complete settles a PENDING transfer the rail confirmed: the hold is
	// captured, tag recipients credited and the fee and notify jobs enqueued.
	Complete(ctx context.Context, tx *Transaction, sessionID string) error
	// Fail releases the hold of a PENDING transfer the rail rejected.
	Fail(ctx context.Context, tx *Transaction) error
}
