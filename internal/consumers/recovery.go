package consumers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/publishers"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/danielsotopino/api-transbank/pkg/mq"
	"go.uber.org/zap"
)

type RecoveryConsumer interface {
	Consume(ctx context.Context) error
}

type recoveryConsumer struct {
	service  service.RecoveryService
	consumer mq.Consumer
	prefetch int
	logger   *zap.Logger
}

func NewRecoveryConsumer(service service.RecoveryService, consumer mq.Consumer, cfg *config.Config, logger *zap.Logger) RecoveryConsumer {
	return &recoveryConsumer{service: service, consumer: consumer, prefetch: cfg.RabbitMQ.Prefetch, logger: logger}
}

func (r *recoveryConsumer) Consume(ctx context.Context) error {
	return r.consumer.Consume(ctx, r.prefetch, publishers.RecoveryQueue, r.handleMessage)
}

// handleMessage requeues store failures and dead-letters everything else.
func (r *recoveryConsumer) handleMessage(ctx context.Context, body []byte) error {
	var cmd service.RecoverAuthorizationCommand
	if err := json.Unmarshal(body, &cmd); err != nil {
		r.logger.Warn("Invalid recovery command", zap.Error(err))
		return err
	}

	r.logger.Info("Received recovery command",
		zap.String("parentBuyOrder", cmd.Response.ParentBuyOrder))

	err := r.service.RecoverAuthorization(ctx, cmd)
	if err == nil {
		return nil
	}

	var serviceErr service.Error
	if errors.As(err, &serviceErr) && serviceErr.Code == constants.ErrCodeDatabaseError {
		return mq.Temporary(err)
	}

	return err
}
