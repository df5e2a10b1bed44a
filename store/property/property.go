package property

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/store"
)

type propertyStore struct {
	db *store.DB
}

func New(db *store.DB) core.PropertyStore {
	return &propertyStore{db: db}
}

func (s *propertyStore) Get(ctx context.Context, key string, value any) (bool, error) {
	stmt, args := s.db.Select("value").From("properties").Where(sq.Eq{"name": key}).MustSql()

	var raw string
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&raw); err != nil {
		if store.IsErrNotFound(err) {
			return false, nil
		}

		return false, err
	}

	if err := json.Unmarshal([]byte(raw), value); err != nil {
		return false, fmt.Errorf("failed to decode property %s: %w", key, err)
	}

	return true, nil
}

func (s *propertyStore) Set(ctx context.Context, key string, value any) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	now := time.Now().UTC()
	stmt, args := s.db.Update("properties").
		Set("value", string(jsonValue)).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", now).
		Where(sq.Eq{"name": key}).
		MustSql()
	r, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("failed to set property: %w", err)
	}

	n, err := r.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n > 0 {
		return nil
	}

	stmt, args = s.db.Insert("properties").
		Columns("name", "value", "updated_at").
		Values(key, string(jsonValue), now).
		MustSql()
	_, err = s.db.ExecContext(ctx, stmt, args...)
	return err
}
