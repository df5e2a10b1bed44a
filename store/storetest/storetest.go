// Package storetest opens throwaway migrated databases for package tests.
package storetest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/pandodao/tag-wallet/store"
	"github.com/pandodao/tag-wallet/store/db"
)

// Open returns a migrated sqlite database living in t.TempDir().
func Open(t testing.TB) *store.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wallet.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	conn, err := db.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
