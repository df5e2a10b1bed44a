package store

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestIsErrDuplicate(t *testing.T) {
	assert.True(t, IsErrDuplicate(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsErrDuplicate(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsErrDuplicate(&pq.Error{Code: "23505"}))
	assert.True(t, IsErrDuplicate(fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})))
	assert.False(t, IsErrDuplicate(sql.ErrNoRows))
}

func TestIsErrNotFound(t *testing.T) {
	assert.True(t, IsErrNotFound(fmt.Errorf("find: %w", sql.ErrNoRows)))
	assert.False(t, IsErrNotFound(sql.ErrConnDone))
}

func TestNew_Placeholders(t *testing.T) {
	stmt, _ := New(nil, "postgres").Select("id").From("wallets").Where("id = ?", "x").MustSql()
	assert.Equal(t, "SELECT id FROM wallets WHERE id = $1", stmt)

	stmt, _ = New(nil, "mysql").Select("id").From("wallets").Where("id = ?", "x").MustSql()
	assert.Equal(t, "SELECT id FROM wallets WHERE id = ?", stmt)
}
