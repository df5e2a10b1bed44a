package main

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/google/wire"
	"github.com/pandodao/tag-wallet/core"
	"github.com/pandodao/tag-wallet/service/notifier"
	"github.com/pandodao/tag-wallet/service/tagpay"
	"github.com/pandodao/tag-wallet/service/transfer"
	"github.com/spf13/viper"
)

var serviceSet = wire.NewSet(
	provideJobOptions,
	provideTagpayConfig,
	tagpay.New,
	provideTransferConfig,
	transfer.New,
	provideProducer,
	provideNotifierConfig,
	notifier.New,
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

func provideTransferConfig(opts core.JobOptions) transfer.Config {
	return transfer.Config{Jobs: opts}
}

func provideProducer(v *viper.Viper) (sarama.SyncProducer, func(), error) {
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})

	producer, err := notifier.NewProducer(v.GetStringSlice("kafka.brokers"), "tag-wallet-worker")
	if err != nil {
		return nil, nil, err
	}

	return producer, func() { _ = producer.Close() }, nil
}

func provideNotifierConfig(v *viper.Viper) notifier.Config {
	v.SetDefault("kafka.topic", "tagwallet.transfers")

	return notifier.Config{Topic: v.GetString("kafka.topic")}
}
