package transaction

import (
	"database/sql"
	"encoding/json"

	"github.com/pandodao/tag-wallet/core"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

var columns = []string{
	"id",
	"created_at",
	"updated_at",
	"reference",
	"amount",
	"fee",
	"type",
	"kind",
	"payment_type",
	"status",
	"user_id",
	"wallet_id",
	"session_id",
	"narration",
	"metadata",
}

func values(tx *core.Transaction) ([]interface{}, error) {
	var metadata sql.NullString
	if len(tx.Metadata) > 0 {
		b, err := json.Marshal(tx.Metadata)
		if err != nil {
			return nil, err
		}

		metadata = sql.NullString{String: string(b), Valid: true}
	}

	return []interface{}{
		tx.ID,
		tx.CreatedAt,
		tx.UpdatedAt,
		tx.Reference,
		tx.Amount,
		tx.Fee,
		tx.Type,
		tx.Kind,
		tx.PaymentType,
		tx.Status,
		tx.UserID,
		tx.WalletID,
		tx.SessionID,
		tx.Narration,
		metadata,
	}, nil
}

func scanTransaction(scanner scanner, tx *core.Transaction) error {
	var metadata sql.NullString
	if err := scanner.Scan(
		&tx.ID,
		&tx.CreatedAt,
		&tx.UpdatedAt,
		&tx.Reference,
		&tx.Amount,
		&tx.Fee,
		&tx.Type,
		&tx.Kind,
		&tx.PaymentType,
		&tx.Status,
		&tx.UserID,
		&tx.WalletID,
		&tx.SessionID,
		&tx.Narration,
		&metadata,
	); err != nil {
		return err
	}

	if metadata.Valid && metadata.String != "" {
		return json.Unmarshal([]byte(metadata.String), &tx.Metadata)
	}

	return nil
}

func scanTransactions(rows *sql.Rows) ([]*core.Transaction, error) {
	defer rows.Close()

	var txs []*core.Transaction
	for rows.Next() {
		var tx core.Transaction
		if err := scanTransaction(rows, &tx); err != nil {
			return nil, err
		}

		txs = append(txs, &tx)
	}

	return txs, rows.Err()
}
