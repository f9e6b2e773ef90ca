package app

import (
	"context"
	"log/slog"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/queue"
)

// PurgeSyncService applies cache purges announced by other instances.
type PurgeSyncService struct {
	consumer *queue.KafkaPurgeConsumer
	admin    *CacheAdmin
}

func NewPurgeSyncService(consumer *queue.KafkaPurgeConsumer, admin *CacheAdmin) *PurgeSyncService {
	return &PurgeSyncService{
		consumer: consumer,
		admin:    admin,
	}
}

// Start returns immediately; with no consumer configured it does nothing.
func (s *PurgeSyncService) Start(ctx context.Context) {
	if s.consumer == nil {
		slog.Info("Purge sync disabled")
		return
	}
	slog.Info("Starting purge sync (Kafka consumer)", "origin", s.admin.Origin())
	go s.consumer.Start(ctx, s.handleEvent)
}

func (s *PurgeSyncService) handleEvent(ctx context.Context, event domain.PurgeEvent) {
	s.admin.ApplyRemote(ctx, event)
}
