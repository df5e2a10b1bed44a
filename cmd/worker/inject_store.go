package main

import (
	"github.com/google/wire"
	"github.com/pandodao/tag-wallet/store"
	"github.com/pandodao/tag-wallet/store/db"
	"github.com/pandodao/tag-wallet/store/job"
	"github.com/pandodao/tag-wallet/store/property"
	"github.com/pandodao/tag-wallet/store/transaction"
	"github.com/pandodao/tag-wallet/store/user"
	"github.com/pandodao/tag-wallet/store/wallet"
	"github.com/spf13/viper"
)

var storeSet = wire.NewSet(
	provideDB,
	user.New,
	wallet.New,
	transaction.New,
	job.New,
	property.New,
)

func provideDB(v *viper.Viper) (*store.DB, func(), error) {
	v.SetDefault("db.driver", "mysql")

	conn, err := db.Open(v.GetString("db.driver"), v.GetString("db.dsn"), v.GetStringSlice("db.replicas")...)
	if err != nil {
		return nil, nil, err
	}

	return conn, func() { _ = conn.Close() }, nil
}
