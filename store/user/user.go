package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/store"
)

func New(db *store.DB) core.UserStore {
	return &userStore{db: db}
}

type userStore struct {
	db *store.DB
}

var columns = []string{"id", "created_at", "tag", "email", "first_name", "last_name", "provider_id"}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *userStore) Create(ctx context.Context, user *core.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	stmt, args := s.db.Insert("users").
		Columns(columns...).
		Values(user.ID, user.CreatedAt, nullable(user.Tag), user.Email, user.FirstName, user.LastName, nullable(user.ProviderID)).
		MustSql()
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		if store.IsErrDuplicate(err) {
			return fmt.Errorf("user %s: %w", user.ID, core.ErrConflict)
		}

		return err
	}

	return nil
}

func (s *userStore) find(ctx context.Context, pred sq.Eq) (*core.User, error) {
	stmt, args := s.db.Select(columns...).From("users").Where(pred).MustSql()

	var (
		user       core.User
		tag, ident sql.NullString
	)

	err := s.db.QueryRowContext(ctx, stmt, args...).
		Scan(&user.ID, &user.CreatedAt, &tag, &user.Email, &user.FirstName, &user.LastName, &ident)
	if store.IsErrNotFound(err) {
		return nil, fmt.Errorf("user: %w", core.ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	user.Tag, user.ProviderID = tag.String, ident.String
	return &user, nil
}

func (s *userStore) Find(ctx context.Context, id string) (*core.User, error) {
	return s.find(ctx, sq.Eq{"id": id})
}

func (s *userStore) FindTag(ctx context.Context, tag string) (*core.User, error) {
	if tag == "" {
		return nil, fmt.Errorf("empty tag: %w", core.ErrNotFound)
	}

	return s.find(ctx, sq.Eq{"tag": tag})
}

func (s *userStore) FindProvider(ctx context.Context, customerID string) (*core.User, error) {
	if customerID == "" {
		return nil, fmt.Errorf("empty customer id: %w", core.ErrNotFound)
	}

	return s.find(ctx, sq.Eq{"provider_id": customerID})
}

func (s *userStore) AccountCreated(ctx context.Context, id string) (bool, error) {
	stmt, args := s.db.Select("is_account_created").From("setups").Where(sq.Eq{"user_id": id}).MustSql()

	var created bool
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&created); err != nil {
		if store.IsErrNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return created, nil
}
