package main

import (
	"context"

	"github.com/danielsotopino/api-transbank/internal/api"
	v1 "github.com/danielsotopino/api-transbank/internal/api/v1"
	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/danielsotopino/api-transbank/internal/database"
	errmiddleware "github.com/danielsotopino/api-transbank/internal/error"
	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/guard"
	"github.com/danielsotopino/api-transbank/internal/metrics"
	"github.com/danielsotopino/api-transbank/internal/publishers"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/danielsotopino/api-transbank/internal/validator"
	"github.com/danielsotopino/api-transbank/pkg/httpclient"
	"github.com/danielsotopino/api-transbank/pkg/mq"
	"github.com/danielsotopino/api-transbank/pkg/oneclick"
	"github.com/danielsotopino/api-transbank/pkg/tracing"
	"github.com/danielsotopino/api-transbank/pkg/vault"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			zap.NewProduction,

			NewConnectionDB,
			NewMQConnection,
			NewMQPublisher,
			NewKeyGuard,
			NewEventPublisher,
			NewRegistry,
			NewMetrics,
			NewTracerProvider,
			NewFiber,

			repository.NewInscriptionRepository,
			repository.NewMallTransactionRepository,
			repository.NewMovementRepository,
			repository.NewHistoryRepository,
			repository.NewTransactionManager,

			NewVault,
			NewGateway,
			validator.NewXValidator,
			service.NewSystemClock,
			publishers.NewRecoveryPublisher,

			service.NewInscriptionService,
			service.NewTransactionService,
			service.NewHistoryService,

			NewDatabaseCollector,
			v1.NewHandler,
		),
		fx.Invoke(startServer),
	).Run()
}

func startServer(app *fiber.App, handler *v1.Handler, cfg *config.Config, m *metrics.Metrics,
	registry *prometheus.Registry, collector *metrics.DatabaseCollector, tp *sdktrace.TracerProvider,
	publisher events.Publisher, rabbit *mq.RabbitMQ, logger *zap.Logger, lc fx.Lifecycle) {
	api.SetupRoutes(app, handler, m, registry, collector, cfg, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			collector.Start(cfg.Metrics.CollectInterval)

			go func() {
				if err := app.Listen(cfg.API.Port); err != nil {
					logger.Error("HTTP server stopped", zap.Error(err))
				}
			}()

			logger.Info("API started", zap.String("port", cfg.API.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping API")

			err := app.ShutdownWithContext(ctx)
			collector.Stop()

			if closeErr := publisher.Close(); closeErr != nil {
				logger.Warn("Failed to close event publisher", zap.Error(closeErr))
			}
			if closeErr := rabbit.Close(); closeErr != nil {
				logger.Warn("Failed to close RabbitMQ connection", zap.Error(closeErr))
			}
			if closeErr := tp.Shutdown(ctx); closeErr != nil {
				logger.Warn("Failed to flush traces", zap.Error(closeErr))
			}

			return err
		},
	})
}

func NewConnectionDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := database.NewConnection(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Migrate {
		if err := database.RunMigrations(db, logger); err != nil {
			logger.Error("Failed to run migrations", zap.Error(err))
			return nil, err
		}
	}

	return db, nil
}

func NewMQConnection(cfg *config.Config, logger *zap.Logger) (*mq.RabbitMQ, error) {
	return mq.NewConnection(cfg.RabbitMQ, logger)
}

func NewMQPublisher(rabbitMQ *mq.RabbitMQ) (mq.Publisher, error) {
	if err := rabbitMQ.DeclareTopology([]string{publishers.RecoveryQueue}); err != nil {
		return nil, err
	}

	return rabbitMQ.CreatePublisher()
}

func NewKeyGuard(cfg *config.Config, logger *zap.Logger) guard.KeyGuard {
	if !cfg.Redis.Enable {
		logger.Info("In-flight guard disabled, relying on unique indexes only")
		return guard.NewNoopGuard()
	}

	return guard.NewRedisGuard(cfg.Redis, guard.NewRedisClient(cfg.Redis), logger)
}

func NewEventPublisher(cfg *config.Config, logger *zap.Logger) events.Publisher {
	if !cfg.Kafka.Enable {
		logger.Info("Event stream disabled")
		return events.NewNoopPublisher()
	}

	return events.NewKafkaPublisher(cfg.Kafka)
}

func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

func NewMetrics(registry *prometheus.Registry) *metrics.Metrics {
	return metrics.NewMetrics(registry)
}

func NewDatabaseCollector(m *metrics.Metrics, logger *zap.Logger, db *gorm.DB) *metrics.DatabaseCollector {
	return metrics.NewDatabaseCollector(m, logger, db)
}

func NewTracerProvider(cfg *config.Config, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	return tracing.NewTracerProvider(cfg.Tracing, logger)
}

func NewFiber(logger *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: errmiddleware.ErrorHandler(logger),
	})
}

func NewVault(cfg *config.Config) vault.Vault {
	return vault.NewVault(cfg.Vault)
}

func NewGateway(cfg *config.Config) oneclick.Gateway {
	client := httpclient.NewHTTPClient(cfg.Gateway.Timeout)
	return oneclick.NewGateway(cfg.Gateway, client)
}
