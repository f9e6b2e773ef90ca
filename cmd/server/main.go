package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/NewsFlow/cmd/server/factory"
	"github.com/NewsFlow/internal/app"
	"github.com/NewsFlow/internal/infra/tracing"
	transport "github.com/NewsFlow/internal/transport/http"
	"github.com/NewsFlow/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	fx.New(
		fx.Provide(
			// Config
			config.Load,

			// Infrastructure
			factory.NewMongoClient,
			factory.NewCacheStore,
			factory.NewPurgePublisher,
			factory.NewInstancePurgeConsumer,
			factory.NewNewsAPIClient,

			// Services
			factory.NewResponseCache,
			factory.NewNewsService,
			factory.NewSourceService,
			factory.NewCacheAdmin,
			app.NewPurgeSyncService,
			factory.NewContactGateway,

			// HTTP Server
			factory.NewHandler,
			transport.NewRouter,
			transport.NewHTTPServer,
		),
		fx.Invoke(
			SetupTracer,
			WaitForReady, // Block until dependencies are ready
			RegisterHooks,
			StartServer,
		),
	).Run()
}

// --- Invokers ---

func RegisterHooks(lc fx.Lifecycle, cfg *config.Config, admin *app.CacheAdmin, syncService *app.PurgeSyncService) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			slog.Info("News API base URL resolved", "base_url", cfg.BaseURL, "cache_backend", cfg.CacheBackend)
			if cfg.PurgeOnStart {
				admin.PurgeOnce(startCtx)
			}
			syncService.Start(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}

func SetupTracer(lc fx.Lifecycle, cfg *config.Config) error {
	ctx := context.Background()
	shutdown, err := tracing.InitTracer(ctx, "newsflow", cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("Failed to initialize tracer", "error", err)
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Info("Shutting down tracer provider")
			return shutdown(ctx)
		},
	})
	return nil
}

// WaitForReady blocks until the configured backing services answer.
func WaitForReady(cfg *config.Config, mongoClient *mongo.Client) error {
	var brokers []string
	if cfg.KafkaEnabled() {
		brokers = cfg.KafkaBrokers
	}
	waiter := app.NewReadinessWaiter(mongoClient, brokers)
	return waiter.WaitForDependencies(context.Background())
}

func StartServer(lc fx.Lifecycle, server *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				slog.Info("Starting news API server", "address", server.Addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("HTTP server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
