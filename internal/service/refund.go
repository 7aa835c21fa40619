package service

import (
	"context"
	"fmt"
	"time"

	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/model"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"github.com/danielsotopino/api-transbank/pkg/oneclick"
	"go.uber.org/zap"
)

func (s *transaction) Refund(ctx context.Context, cmd RefundCommand) (RefundResponse, error) {
	if err := s.validator.Validate(cmd); err != nil {
		return RefundResponse{}, validationError(err)
	}

	detail, err := s.getDetail(ctx, cmd.CommerceCode, cmd.BuyOrder)
	if err != nil {
		return RefundResponse{}, err
	}

	if !detail.Refundable() {
		s.logger.Warn("Detail not refundable",
			zap.String("buyOrder", cmd.BuyOrder),
			zap.String("status", string(detail.Status)))
		return RefundResponse{}, NewServiceError(constants.ErrCodeInvalidState,
			fmt.Errorf("detail is %s", detail.Status))
	}

	if detail.Transaction != nil {
		deadline := refundDeadline(detail.Transaction.TransactionDate, s.limits.RefundWindow)
		if s.clock.Now().UTC().Truncate(day).After(deadline) {
			s.logger.Warn("Refund window expired",
				zap.String("buyOrder", cmd.BuyOrder),
				zap.Time("transactionDate", detail.Transaction.TransactionDate))
			return RefundResponse{}, NewServiceError(constants.ErrCodeExpiredWindow,
				fmt.Errorf("refund window closed after %s", deadline.Format(time.DateOnly)))
		}
	}

	ledger, err := s.movements.Ledger(ctx, detail.ID)
	if err != nil {
		s.logger.Error("Failed to load detail ledger",
			zap.String("buyOrder", cmd.BuyOrder),
			zap.Error(err))
		return RefundResponse{}, NewServiceError(constants.ErrCodeDatabaseError, err)
	}

	if refundable := ledger.Refundable(detail.Amount); cmd.Amount > refundable {
		return RefundResponse{}, NewServiceError(constants.ErrCodeAmountExceedsBalance,
			fmt.Errorf("refund %d exceeds refundable %d", cmd.Amount, refundable))
	}

	release, err := acquire(ctx, s.guard, detailKey("refund", detail), s.deadlines.Refund, s.logger)
	if err != nil {
		return RefundResponse{}, err
	}
	defer release()

	callCtx, cancel := context.WithTimeout(ctx, s.deadlines.Refund)
	defer cancel()

	parentBuyOrder := cmd.BuyOrder
	if detail.Transaction != nil {
		parentBuyOrder = detail.Transaction.ParentBuyOrder
	}

	started := time.Now()
	resp, err := s.gateway.Refund(callCtx, oneclick.RefundRequest{
		CommerceCode:   cmd.CommerceCode,
		BuyOrder:       parentBuyOrder,
		DetailBuyOrder: cmd.BuyOrder,
		Amount:         cmd.Amount,
	})
	outcome := gatewayOutcome(err, resp.Approved())
	s.metrics.RecordGatewayCall("Refund", outcome, time.Since(started))
	s.metrics.RecordRefund(outcome)
	if err != nil {
		s.logger.Error("Gateway refund failed",
			zap.String("buyOrder", cmd.BuyOrder),
			zap.Error(err))
		return RefundResponse{}, gatewayError(err)
	}

	result := RefundResponse{
		ResponseCode:      resp.ResponseCode,
		ReversalType:      resp.Type,
		AuthorizationCode: resp.AuthorizationCode,
		Status:            string(detail.Status),
		Balance:           detail.Balance,
	}

	if !resp.Approved() {
		s.logger.Warn("Refund rejected by gateway",
			zap.String("buyOrder", cmd.BuyOrder),
			zap.Int("responseCode", resp.ResponseCode))
		return result, nil
	}

	result.ReversedAmount = cmd.Amount
	if resp.Type == oneclick.RefundTypeNullified && resp.NullifiedAmount > 0 {
		result.ReversedAmount = resp.NullifiedAmount
	}

	status, balance := detail.AfterRefund(ledger, cmd.Amount)
	movement := model.DetailMovement{
		DetailID:          detail.ID,
		Kind:              ledger.RefundKind(),
		Amount:            cmd.Amount,
		AuthorizationCode: resp.AuthorizationCode,
		ResponseCode:      resp.ResponseCode,
		RefundType:        resp.Type,
	}

	s.applyMovement(ctx, detail, repository.DetailState{Status: status, Balance: balance}, &movement)

	result.Status = string(status)
	result.Balance = balance

	s.logger.Info("Detail refunded",
		zap.String("buyOrder", cmd.BuyOrder),
		zap.String("type", resp.Type),
		zap.Int64("amount", cmd.Amount),
		zap.String("status", string(status)))

	publish(ctx, s.events, events.Event{
		Type:           events.TypeTransactionRefunded,
		ParentBuyOrder: parentBuyOrder,
		CommerceCode:   cmd.CommerceCode,
		BuyOrder:       cmd.BuyOrder,
		Amount:         cmd.Amount,
		Status:         string(status),
		OccurredAt:     s.clock.Now(),
	}, s.logger)

	return result, nil
}

const day = 24 * time.Hour

// refundDeadline is the last calendar day, in UTC, on which a refund is
// accepted. The window counts whole days from the transaction date.
func refundDeadline(transactionDate time.Time, window time.Duration) time.Time {
	return transactionDate.UTC().Truncate(day).Add(window.Truncate(day))
}
