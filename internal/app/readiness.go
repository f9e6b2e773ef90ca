package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type readinessProbe struct {
	name  string
	check func(ctx context.Context) error
}

// ReadinessWaiter blocks startup until the optional backing services answer.
type ReadinessWaiter struct {
	probes   []readinessProbe
	interval time.Duration
}

// NewReadinessWaiter probes MongoDB when mongoClient is set and Kafka when brokers are given.
func NewReadinessWaiter(mongoClient *mongo.Client, brokers []string) *ReadinessWaiter {
	w := &ReadinessWaiter{interval: 2 * time.Second}
	if mongoClient != nil {
		w.probes = append(w.probes, readinessProbe{
			name: "MongoDB",
			check: func(ctx context.Context) error {
				return mongoClient.Ping(ctx, readpref.Primary())
			},
		})
	}
	if len(brokers) > 0 {
		w.probes = append(w.probes, readinessProbe{
			name: "Kafka",
			check: func(ctx context.Context) error {
				return checkKafka(ctx, brokers)
			},
		})
	}
	return w
}

func (w *ReadinessWaiter) WaitForDependencies(ctx context.Context) error {
	for _, p := range w.probes {
		if err := w.waitFor(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// waitFor polls until the probe passes. There is no deadline of its own; slow
// dependencies in dev setups are waited out until ctx ends.
func (w *ReadinessWaiter) waitFor(ctx context.Context, p readinessProbe) error {
	slog.Info("Waiting for " + p.name + "...")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		err := p.check(ctx)
		if err == nil {
			slog.Info(p.name + " is ready")
			return nil
		}
		slog.Warn(p.name+" not ready yet", "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", p.name, ctx.Err())
		case <-ticker.C:
		}
	}
}

func checkKafka(ctx context.Context, brokers []string) error {
	for _, broker := range brokers {
		conn, err := net.DialTimeout("tcp", broker, 2*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to broker %s: %w", broker, err)
		}
		_ = conn.Close()
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	if _, err := conn.Brokers(); err != nil {
		return fmt.Errorf("failed to read cluster metadata: %w", err)
	}
	return nil
}
