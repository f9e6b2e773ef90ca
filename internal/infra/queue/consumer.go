package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/NewsFlow/internal/domain"
	"github.com/segmentio/kafka-go"
)

type KafkaPurgeConsumer struct {
	reader *kafka.Reader
}

// NewKafkaPurgeConsumer reads purge events. Every instance needs its own groupID so that
// each one sees every event.
func NewKafkaPurgeConsumer(brokers []string, topic string, groupID string) *KafkaPurgeConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    1e6, // 1MB
	})
	slog.Info("Kafka purge consumer initialized", "brokers", brokers, "topic", topic, "group", groupID)
	return &KafkaPurgeConsumer{reader: r}
}

type PurgeHandler func(ctx context.Context, event domain.PurgeEvent)

// Start blocks, handing each event to handler, until ctx ends or the reader fails.
func (c *KafkaPurgeConsumer) Start(ctx context.Context, handler PurgeHandler) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("Error reading kafka message", "error", err)
			}
			return
		}

		event, err := decodePurge(m)
		if err != nil {
			slog.Error("Skipping malformed purge event", "partition", m.Partition, "offset", m.Offset, "error", err)
			continue
		}

		slog.Debug("Received cache purge", "key", event.Key, "origin", event.Origin, "partition", m.Partition)
		handler(ctx, event)
	}
}

func (c *KafkaPurgeConsumer) Close() error {
	return c.reader.Close()
}
