package main

import (
	"context"

	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/danielsotopino/api-transbank/internal/consumers"
	"github.com/danielsotopino/api-transbank/internal/database"
	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/metrics"
	"github.com/danielsotopino/api-transbank/internal/publishers"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/danielsotopino/api-transbank/pkg/mq"
	"github.com/prometheus/client_golang/prometheus"
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
			NewMQConsumer,
			NewEventPublisher,
			NewMetrics,

			repository.NewMallTransactionRepository,
			repository.NewTransactionManager,
			service.NewSystemClock,
			service.NewRecoveryService,

			consumers.NewRecoveryConsumer,
		),
		fx.Invoke(runRecoveryConsumer),
	).Run()
}

func runRecoveryConsumer(recoveryConsumer consumers.RecoveryConsumer, publisher events.Publisher,
	logger *zap.Logger, rabbit *mq.RabbitMQ, lc fx.Lifecycle) {
	appCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rabbit.DeclareTopology([]string{publishers.RecoveryQueue}); err != nil {
				logger.Error("declare topology failed", zap.Error(err))
				return err
			}
			logger.Info("queue declared", zap.String("queue", publishers.RecoveryQueue))

			go func() {
				if err := recoveryConsumer.Consume(appCtx); err != nil {
					logger.Error("consumer exited", zap.Error(err))
				}
			}()

			logger.Info("recovery consumer started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping recovery consumer")
			cancel()

			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close event publisher", zap.Error(err))
			}

			return rabbit.Close()
		},
	})
}

func NewConnectionDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	return database.NewConnection(cfg, logger)
}

func NewMQConnection(cfg *config.Config, logger *zap.Logger) (*mq.RabbitMQ, error) {
	return mq.NewConnection(cfg.RabbitMQ, logger)
}

func NewMQConsumer(rabbitMQ *mq.RabbitMQ) (mq.Consumer, error) {
	return rabbitMQ.CreateConsumer()
}

func NewEventPublisher(cfg *config.Config, logger *zap.Logger) events.Publisher {
	if !cfg.Kafka.Enable {
		logger.Info("Event stream disabled")
		return events.NewNoopPublisher()
	}

	return events.NewKafkaPublisher(cfg.Kafka)
}

func NewMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.DefaultRegisterer)
}
