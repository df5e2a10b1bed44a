package notifier

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/asaskevich/govalidator"
	"github.com/pandodao/tag-wallet/core"
)

type Config struct {
	Topic string `valid:"required"`
}

// NewProducer dials an idempotent sync producer; events are keyed by user so
// one user's events stay ordered within a partition.
func NewProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Version = sarama.V2_1_0_0
	cfg.Producer.Idempotent = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Net.MaxOpenRequests = 1

	return sarama.NewSyncProducer(brokers, cfg)
}

func New(producer sarama.SyncProducer, logger *slog.Logger, cfg Config) core.Notifier {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &notifier{
		producer: producer,
		logger:   logger.With("service", "notifier"),
		cfg:      cfg,
	}
}

type notifier struct {
	producer sarama.SyncProducer
	logger   *slog.Logger
	cfg      Config
}

func (n *notifier) Publish(_ context.Context, event *core.TransferEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	partition, offset, err := n.producer.SendMessage(&sarama.ProducerMessage{
		Topic: n.cfg.Topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		n.logger.Error("producer.SendMessage", "reference", event.Reference, "err", err)
		return err
	}

	n.logger.Debug("transfer event sent", "reference", event.Reference, "partition", partition, "offset", offset)
	return nil
}
