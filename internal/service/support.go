package service

import (
	"context"
	"time"

	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/guard"
	"github.com/danielsotopino/api-transbank/internal/model"
	"go.uber.org/zap"
)

// acquire takes the in-flight key for the duration of a gateway call. Only a
// held key stops the operation; an unreachable guard falls back to the
// unique indexes.
func acquire(ctx context.Context, keyGuard guard.KeyGuard, key string, ttl time.Duration, logger *zap.Logger) (func(), error) {
	release, err := keyGuard.Acquire(ctx, key, ttl)
	if err == nil {
		return release, nil
	}

	if inFlight := inFlightError(err); inFlight != nil {
		logger.Warn("Operation already in flight", zap.String("key", key))
		return nil, inFlight
	}

	logger.Warn("In-flight guard unavailable, continuing without it",
		zap.String("key", key),
		zap.Error(err))

	return func() {}, nil
}

func publish(ctx context.Context, publisher events.Publisher, event events.Event, logger *zap.Logger) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.Error(err))
	}
}

func toTransactionResponse(transaction *model.MallTransaction) TransactionResponse {
	details := make([]TransactionDetail, 0, len(transaction.Details))
	for _, d := range transaction.Details {
		details = append(details, toTransactionDetail(d))
	}

	return TransactionResponse{
		ParentBuyOrder:  transaction.ParentBuyOrder,
		SessionID:       transaction.SessionID,
		CardNumber:      transaction.MaskedCardNumber,
		Status:          string(transaction.Status()),
		TransactionDate: transaction.TransactionDate,
		AccountingDate:  transaction.AccountingDate,
		Details:         details,
	}
}

func toTransactionDetail(d model.MallTransactionDetail) TransactionDetail {
	return TransactionDetail{
		CommerceCode:       d.CommerceCode,
		BuyOrder:           d.BuyOrder,
		Amount:             d.Amount,
		Balance:            d.Balance,
		Status:             string(d.Status),
		ResponseCode:       d.ResponseCode,
		AuthorizationCode:  d.AuthorizationCode,
		PaymentTypeCode:    d.PaymentTypeCode,
		InstallmentsNumber: d.InstallmentsNumber,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
