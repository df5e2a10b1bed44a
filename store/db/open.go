package db

import (
	"strings"

	"github.com/pandodao/tag-wallet/store"
	"github.com/tsenart/nap"
)

// Open connects the master dsn plus read replicas and migrates the master.
func Open(driver, dsn string, replicas ...string) (*store.DB, error) {
	conn, err := nap.Open(driver, strings.Join(append([]string{dsn}, replicas...), ";"))
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" {
		// sqlite has a single writer
		conn.Master().SetMaxOpenConns(1)
	}

	if err := Migrate(conn.Master(), driver); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return store.New(conn, driver), nil
}
