package publishers

import (
	"context"
	"encoding/json"

	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/danielsotopino/api-transbank/pkg/mq"
	"go.uber.org/zap"
)

const RecoveryQueue = "oneclick.authorization.recovery"

type recoveryPublisher struct {
	publisher mq.Publisher
	logger    *zap.Logger
}

func NewRecoveryPublisher(publisher mq.Publisher, logger *zap.Logger) service.RecoveryPublisher {
	return &recoveryPublisher{publisher: publisher, logger: logger}
}

func (r *recoveryPublisher) Publish(ctx context.Context, cmd service.RecoverAuthorizationCommand) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	// the parent buy order doubles as message id so consumers can spot redeliveries
	if err := r.publisher.Publish(ctx, "", RecoveryQueue, cmd.Response.ParentBuyOrder, body); err != nil {
		r.logger.Error("Failed to publish authorization recovery",
			zap.String("parentBuyOrder", cmd.Response.ParentBuyOrder),
			zap.Error(err))
		return err
	}

	r.logger.Info("Authorization recovery published",
		zap.String("parentBuyOrder", cmd.Response.ParentBuyOrder))

	return nil
}
