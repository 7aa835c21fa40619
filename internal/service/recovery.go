package service

import (
	"context"
	"errors"

	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/metrics"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"go.uber.org/zap"
)

type RecoveryService interface {
	RecoverAuthorization(ctx context.Context, cmd RecoverAuthorizationCommand) error
}

type recovery struct {
	transactions repository.MallTransactionRepository
	txManager    repository.TxManager
	events       events.Publisher
	metrics      *metrics.Metrics
	clock        Clock
	logger       *zap.Logger
}

func NewRecoveryService(transactions repository.MallTransactionRepository, txManager repository.TxManager,
	publisher events.Publisher, metrics *metrics.Metrics, clock Clock, logger *zap.Logger) RecoveryService {
	return &recovery{
		transactions: transactions,
		txManager:    txManager,
		events:       publisher,
		metrics:      metrics,
		clock:        clock,
		logger:       logger,
	}
}

// RecoverAuthorization persists an authorization the API could not write.
// Redelivery of an already persisted parent buy order is a no-op.
func (r *recovery) RecoverAuthorization(ctx context.Context, cmd RecoverAuthorizationCommand) error {
	parentBuyOrder := cmd.Response.ParentBuyOrder

	exists, err := r.transactions.ExistsParentBuyOrder(ctx, parentBuyOrder)
	if err != nil {
		r.logger.Error("Failed to check recovered buy order",
			zap.String("parentBuyOrder", parentBuyOrder),
			zap.Error(err))
		return NewServiceError(constants.ErrCodeDatabaseError, err)
	}

	if exists {
		r.logger.Info("Authorization already persisted, skipping",
			zap.String("parentBuyOrder", parentBuyOrder))
		r.metrics.RecordRecovery("already_persisted")
		return nil
	}

	mall, err := buildMallTransaction(cmd.Username, cmd.InscriptionID, cmd.Response)
	if err != nil {
		r.logger.Error("Failed to rebuild recovered authorization",
			zap.String("parentBuyOrder", parentBuyOrder),
			zap.Error(err))
		return err
	}

	err = r.txManager.WithTx(ctx, func(ctx context.Context) error {
		return r.transactions.Create(ctx, mall)
	})
	if errors.Is(err, repository.ErrTransactionDuplicate) {
		r.logger.Info("Authorization persisted concurrently, skipping",
			zap.String("parentBuyOrder", parentBuyOrder))
		r.metrics.RecordRecovery("already_persisted")
		return nil
	}
	if err != nil {
		r.logger.Error("Failed to persist recovered authorization",
			zap.String("parentBuyOrder", parentBuyOrder),
			zap.Error(err))
		return NewServiceError(constants.ErrCodeDatabaseError, err)
	}

	r.metrics.RecordRecovery("persisted")
	r.logger.Info("Recovered authorization persisted",
		zap.String("parentBuyOrder", parentBuyOrder),
		zap.Duration("delay", r.clock.Now().Sub(cmd.FailedAt)))

	publish(ctx, r.events, events.Event{
		Type:           events.TypeTransactionRecovered,
		Username:       mall.Username,
		ParentBuyOrder: mall.ParentBuyOrder,
		Amount:         mall.TotalAmount,
		Status:         string(mall.Status()),
		OccurredAt:     r.clock.Now(),
	}, r.logger)

	return nil
}
