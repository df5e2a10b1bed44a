package main

import (
	"time"

	"github.com/google/wire"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/service/bank"
	"github.com/pandodao/tag-wallet/service/tagpay"
	"github.com/pandodao/tag-wallet/service/transfer"
	walletz "github.com/pandodao/tag-wallet/service/wallet"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

var serviceSet = wire.NewSet(
	provideJobOptions,
	provideTagpayConfig,
	tagpay.New,
	provideRedis,
	provideBankConfig,
	bank.New,
	walletz.New,
	provideTransferConfig,
	transfer.New,
)

func provideJobOptions(v *viper.Viper) core.JobOptions {
	v.SetDefault("queue.max_attempts", core.DefaultJobOptions.MaxAttempts)
	v.SetDefault("queue.backoff", core.DefaultJobOptions.Backoff)

	return core.JobOptions{
		MaxAttempts: v.GetInt("queue.max_attempts"),
		Backoff:     v.GetDuration("queue.backoff"),
	}
}

func provideTagpayConfig(v *viper.Viper) tagpay.Config {
	v.SetDefault("tagpay.timeout", 30*time.Second)

	return tagpay.Config{
		BaseURL: v.GetString("tagpay.base_url"),
		APIKey:  v.GetString("tagpay.api_key"),
		Timeout: v.GetDuration("tagpay.timeout"),
		Rate:    v.GetFloat64("tagpay.rate"),
	}
}

func provideRedis(v *viper.Viper) (*redis.Client, func()) {
	v.SetDefault("redis.addr", "localhost:6379")

	rdb := redis.NewClient(&redis.Options{
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	})

	return rdb, func() { _ = rdb.Close() }
}

func provideBankConfig(v *viper.Viper) bank.Config {
	v.SetDefault("bank.cache_ttl", 3000*time.Second)

	return bank.Config{
		CacheTTL:     v.GetDuration("bank.cache_ttl"),
		ResolveCache: v.GetInt("bank.resolve_cache"),
	}
}

func provideTransferConfig(opts core.JobOptions) transfer.Config {
	return transfer.Config{Jobs: opts}
}
