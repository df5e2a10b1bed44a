package main

import (
	"time"

	"github.com/google/wire"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/worker/cleaner"
	"github.com/pandodao/tag-wallet/worker/dispatcher"
	"github.com/pandodao/tag-wallet/worker/reconciler"
	"github.com/pandodao/tag-wallet/worker/tasks"
	"github.com/spf13/viper"
)

var workerSet = wire.NewSet(
	provideFeeChargerConfig,
	tasks.NewFeeCharger,
	tasks.NewProvisioner,
	tasks.NewMigrator,
	tasks.NewNotifier,
	provideRegistry,
	provideDispatcherConfig,
	dispatcher.New,
	provideReconcilerConfig,
	reconciler.New,
	provideCleanerConfig,
	cleaner.New,
)

func provideFeeChargerConfig(v *viper.Viper) tasks.FeeChargerConfig {
	return tasks.FeeChargerConfig{FeeWalletID: v.GetString("tagpay.fee_wallet_id")}
}

func provideRegistry(
	fees *tasks.FeeCharger,
	accounts *tasks.Provisioner,
	migrations *tasks.Migrator,
	notifications *tasks.Notifier,
) dispatcher.Registry {
	return dispatcher.Registry{
		core.QueueChargeTransferFee:  fees,
		core.QueueCreateAccount:      accounts,
		core.QueueMigrateTransaction: migrations,
		core.QueueNotifyTransfer:     notifications,
	}
}

func provideDispatcherConfig(v *viper.Viper) dispatcher.Config {
	v.SetDefault("queue.concurrency", 10)

	return dispatcher.Config{Concurrency: v.GetInt("queue.concurrency")}
}

func provideReconcilerConfig(v *viper.Viper) reconciler.Config {
	v.SetDefault("reconciler.grace", time.Hour)

	return reconciler.Config{
		Grace: v.GetDuration("reconciler.grace"),
		Batch: v.GetInt("reconciler.batch"),
	}
}

func provideCleanerConfig(v *viper.Viper) cleaner.Config {
	v.SetDefault("queue.retention", 24*time.Hour)
	v.SetDefault("queue.stall", 10*time.Minute)

	return cleaner.Config{
		Retention: v.GetDuration("queue.retention"),
		Stall:     v.GetDuration("queue.stall"),
	}
}
