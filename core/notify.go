package core

import (
	"context"
	"time"
)

type TransferEvent struct {
	EventID     string            `json:"event_id"`
	EventType   string            `json:"event_type"`
	Reference   string            `json:"reference"`
	Status      TransactionStatus `json:"status"`
	Type        TransactionType   `json:"type"`
	PaymentType PaymentType       `json:"payment_type"`
	UserID      string            `json:"user_id"`
	WalletID    string            `json:"wallet_id"`
	Amount      int64             `json:"amount"`
	Fee         int64             `json:"fee"`
	SessionID   string            `json:"session_id,omitempty"`
	Narration   string            `json:"narration,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

type Notifier interface {
	Publish(ctx context.Context, event *TransferEvent) error
}
