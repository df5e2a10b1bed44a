package wallet

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/store"
)

func New(db *store.DB) core.WalletStore {
	return &walletStore{db: db}
}

type walletStore struct {
	db *store.DB
}

func insert(ctx context.Context, db *store.DB, r store.Execer, wallet *core.Wallet) error {
	now := time.Now().UTC()
	wallet.CreatedAt, wallet.UpdatedAt = now, now
	wallet.AvailableBalance = wallet.LedgerBalance - wallet.HoldBalance
	if wallet.Currency == "" {
		wallet.Currency = "NGN"
	}

	if wallet.Status == "" {
		wallet.Status = core.WalletStatusOpen
	}

	stmt, args := db.Insert("wallets").Columns(columns...).Values(values(wallet)...).MustSql()
	_, err := r.ExecContext(ctx, stmt, args...)
	if store.IsErrDuplicate(err) {
		return fmt.Errorf("wallet for user %s exists: %w", wallet.UserID, core.ErrConflict)
	}

	return err
}

func (s *walletStore) Create(ctx context.Context, wallet *core.Wallet) error {
	return insert(ctx, s.db, s.db, wallet)
}

func (s *walletStore) Provision(ctx context.Context, wallet *core.Wallet, customerID string) error {
	tx, err := s.db.Master().BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := insert(ctx, s.db, tx, wallet); err != nil {
		return err
	}

	stmt, args := s.db.Update("users").
		Set("provider_id", customerID).
		Where(sq.Eq{"id": wallet.UserID}).
		MustSql()
	r, err := tx.ExecContext(ctx, stmt, args...)
	if store.IsErrDuplicate(err) {
		return fmt.Errorf("customer %s linked to another user: %w", customerID, core.ErrConflict)
	}
	if err != nil {
		return err
	}

	if n, err := r.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("user %s: %w", wallet.UserID, core.ErrNotFound)
	}

	if err := markAccountCreated(ctx, s.db, tx, wallet.UserID); err != nil {
		return err
	}

	return tx.Commit()
}

func markAccountCreated(ctx context.Context, db *store.DB, tx store.Execer, userID string) error {
	now := time.Now().UTC()
	stmt, args := db.Update("setups").
		Set("is_account_created", true).
		Set("updated_at", now).
		Where(sq.Eq{"user_id": userID}).
		MustSql()
	r, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}

	if n, err := r.RowsAffected(); err != nil || n > 0 {
		return err
	}

	stmt, args = db.Insert("setups").
		Columns("user_id", "is_bvn_provided", "is_account_created", "updated_at").
		Values(userID, true, true, now).
		MustSql()
	_, err = tx.ExecContext(ctx, stmt, args...)
	return err
}

func (s *walletStore) find(ctx context.Context, pred interface{}) (*core.Wallet, error) {
	stmt, args := s.db.Select(columns...).From("wallets").Where(pred).MustSql()
	row := s.db.QueryRowContext(ctx, stmt, args...)

	var wallet core.Wallet
	if err := scanWallet(row, &wallet); err != nil {
		if store.IsErrNotFound(err) {
			return nil, fmt.Errorf("wallet: %w", core.ErrNotFound)
		}

		return nil, err
	}

	return &wallet, nil
}

func (s *walletStore) Find(ctx context.Context, id string) (*core.Wallet, error) {
	return s.find(ctx, sq.Eq{"id": id})
}

func (s *walletStore) FindUser(ctx context.Context, userID string) (*core.Wallet, error) {
	return s.find(ctx, sq.Eq{"user_id": userID})
}

// update runs a guarded single statement update. When no row matches the
// wallet either does not exist or the guard rejected it with reason.
func (s *walletStore) update(ctx context.Context, id string, b sq.UpdateBuilder, reason error) (*core.Wallet, error) {
	stmt, args := b.Set("updated_at", time.Now().UTC()).Where(sq.Eq{"id": id}).MustSql()
	r, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	n, err := r.RowsAffected()
	if err != nil {
		return nil, err
	}

	if n == 0 {
		if _, err := s.Find(ctx, id); err != nil {
			return nil, err
		}

		return nil, reason
	}

	return s.Find(ctx, id)
}

func validAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d: %w", amount, core.ErrValidation)
	}

	return nil
}

func (s *walletStore) Debit(ctx context.Context, id string, amount, fee int64) (*core.Wallet, error) {
	total := amount + fee
	if err := validAmount(amount); err != nil {
		return nil, err
	}

	b := s.db.Update("wallets").
		Set("balance", sq.Expr("balance - ?", total)).
		Set("ledger_balance", sq.Expr("ledger_balance - ?", total)).
		Set("available_balance", sq.Expr("available_balance - ?", total)).
		Where(sq.GtOrEq{"available_balance": total})
	return s.update(ctx, id, b, fmt.Errorf("debit %d: %w", total, core.ErrInsufficientFunds))
}

func (s *walletStore) Credit(ctx context.Context, id string, amount, maxBalance int64) (*core.Wallet, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}

	b := s.db.Update("wallets").
		Set("balance", sq.Expr("balance + ?", amount)).
		Set("ledger_balance", sq.Expr("ledger_balance + ?", amount)).
		Set("available_balance", sq.Expr("available_balance + ?", amount))
	if maxBalance > 0 {
		b = b.Where(sq.LtOrEq{"balance": maxBalance - amount})
	}

	return s.update(ctx, id, b, fmt.Errorf("credit %d above max balance %d: %w", amount, maxBalance, core.ErrLimitExceeded))
}

func (s *walletStore) Hold(ctx context.Context, id string, amount int64) (*core.Wallet, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}

	b := s.db.Update("wallets").
		Set("hold_balance", sq.Expr("hold_balance + ?", amount)).
		Set("available_balance", sq.Expr("available_balance - ?", amount)).
		Where(sq.GtOrEq{"available_balance": amount})
	return s.update(ctx, id, b, fmt.Errorf("hold %d: %w", amount, core.ErrInsufficientFunds))
}

func (s *walletStore) Release(ctx context.Context, id string, amount int64) (*core.Wallet, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}

	b := s.db.Update("wallets").
		Set("hold_balance", sq.Expr("hold_balance - ?", amount)).
		Set("available_balance", sq.Expr("available_balance + ?", amount)).
		Where(sq.GtOrEq{"hold_balance": amount})
	return s.update(ctx, id, b, fmt.Errorf("release %d above hold: %w", amount, core.ErrConflict))
}

func (s *walletStore) Capture(ctx context.Context, id string, amount int64) (*core.Wallet, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}

	b := s.db.Update("wallets").
		Set("balance", sq.Expr("balance - ?", amount)).
		Set("ledger_balance", sq.Expr("ledger_balance - ?", amount)).
		Set("hold_balance", sq.Expr("hold_balance - ?", amount)).
		Where(sq.GtOrEq{"hold_balance": amount})
	return s.update(ctx, id, b, fmt.Errorf("capture %d above hold: %w", amount, core.ErrConflict))
}

func (s *walletStore) Sync(ctx context.Context, id string, balance, ledgerBalance int64) (*core.Wallet, error) {
	b := s.db.Update("wallets").
		Set("balance", balance).
		Set("ledger_balance", ledgerBalance).
		Set("available_balance", sq.Expr("? - hold_balance", ledgerBalance))
	return s.update(ctx, id, b, core.ErrInternal)
}
