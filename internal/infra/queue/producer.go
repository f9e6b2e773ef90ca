package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/NewsFlow/internal/domain"
	"github.com/segmentio/kafka-go"
)

// KafkaPurgePublisher announces cache purges on a topic shared by every instance.
type KafkaPurgePublisher struct {
	writer *kafka.Writer
}

var _ domain.PurgePublisher = (*KafkaPurgePublisher)(nil)

func NewKafkaPurgePublisher(brokers []string, topic string) *KafkaPurgePublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	slog.Info("Kafka purge publisher initialized", "brokers", brokers, "topic", topic)
	return &KafkaPurgePublisher{writer: w}
}

func (p *KafkaPurgePublisher) PublishPurge(ctx context.Context, event domain.PurgeEvent) error {
	msg, err := encodePurge(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write to kafka", "error", err)
		return fmt.Errorf("publish purge: %w", err)
	}

	slog.Debug("Published cache purge", "key", event.Key, "origin", event.Origin)
	return nil
}

func (p *KafkaPurgePublisher) Close() error {
	return p.writer.Close()
}

// encodePurge keys messages by origin so one instance's purges stay ordered.
func encodePurge(event domain.PurgeEvent) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode purge event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.Origin),
		Value: payload,
	}, nil
}

func decodePurge(m kafka.Message) (domain.PurgeEvent, error) {
	var event domain.PurgeEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return domain.PurgeEvent{}, fmt.Errorf("decode purge event: %w", err)
	}
	return event, nil
}
