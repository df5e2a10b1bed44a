package transaction

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/store"
)

const defaultLimit = 50

func New(db *store.DB) core.TransactionStore {
	return &transactionStore{db: db}
}

type transactionStore struct {
	db *store.DB
}

func (s *transactionStore) Create(ctx context.Context, tx *core.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	if tx.Kind == "" {
		tx.Kind = core.KindTransfer
	}

	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}

	tx.UpdatedAt = now

	vals, err := values(tx)
	if err != nil {
		return err
	}

	stmt, args := s.db.Insert("transactions").Columns(columns...).Values(vals...).MustSql()
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		if store.IsErrDuplicate(err) {
			return fmt.Errorf("reference %s: %w", tx.Reference, core.ErrConflict)
		}

		return err
	}

	return nil
}

func (s *transactionStore) FindReference(ctx context.Context, reference string) (*core.Transaction, error) {
	stmt, args := s.db.Select(columns...).From("transactions").Where(sq.Eq{"reference": reference}).MustSql()

	var tx core.Transaction
	if err := scanTransaction(s.db.QueryRowContext(ctx, stmt, args...), &tx); err != nil {
		if store.IsErrNotFound(err) {
			return nil, fmt.Errorf("transaction %s: %w", reference, core.ErrNotFound)
		}

		return nil, err
	}

	return &tx, nil
}

func (s *transactionStore) UpdateStatus(ctx context.Context, tx *core.Transaction, to core.TransactionStatus) error {
	now := time.Now().UTC()
	stmt, args := s.db.Update("transactions").
		Set("status", to).
		Set("session_id", tx.SessionID).
		Set("updated_at", now).
		Where(sq.Eq{"id": tx.ID, "status": tx.Status}).
		MustSql()
	r, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}

	n, err := r.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("optimistic lock failed on %s: %w", tx.Reference, core.ErrConflict)
	}

	tx.Status, tx.UpdatedAt = to, now
	return nil
}

func (s *transactionStore) List(ctx context.Context, filter core.TransactionFilter) ([]*core.Transaction, error) {
	b := s.db.Select(columns...).
		From("transactions").
		Where(sq.Eq{"user_id": filter.UserID}).
		OrderBy("created_at DESC").
		Limit(uint64(limitOrDefault(filter.Limit)))
	if len(filter.PaymentTypes) > 0 {
		b = b.Where(sq.Eq{"payment_type": filter.PaymentTypes})
	}

	stmt, args := b.MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	return scanTransactions(rows)
}

func (s *transactionStore) ListStale(ctx context.Context, before time.Time, limit int) ([]*core.Transaction, error) {
	stmt, args := s.db.Select(columns...).
		From("transactions").
		Where(sq.Eq{
			"kind":   core.KindTransfer,
			"type":   core.TransactionTypeDebit,
			"status": core.TransactionStatusPending,
		}).
		Where(sq.Lt{"created_at": before.UTC()}).
		OrderBy("created_at").
		Limit(uint64(limitOrDefault(limit))).
		MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	return scanTransactions(rows)
}

func (s *transactionStore) SumDebits(ctx context.Context, userID string, since time.Time) (int64, error) {
	stmt, args := s.db.Select("COALESCE(SUM(amount + fee), 0)").
		From("transactions").
		Where(sq.Eq{
			"user_id": userID,
			"type":    core.TransactionTypeDebit,
			"status":  []core.TransactionStatus{core.TransactionStatusPending, core.TransactionStatusCompleted},
		}).
		Where(sq.NotEq{"kind": core.KindFee}).
		Where(sq.GtOrEq{"created_at": since.UTC()}).
		MustSql()

	var sum int64
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&sum); err != nil {
		return 0, err
	}

	return sum, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}

	return min(limit, 500)
}
