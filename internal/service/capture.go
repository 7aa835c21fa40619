package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/model"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"github.com/danielsotopino/api-transbank/pkg/oneclick"
	"go.uber.org/zap"
)

func (s *transaction) Capture(ctx context.Context, cmd CaptureCommand) (CaptureResponse, error) {
	if err := s.validator.Validate(cmd); err != nil {
		return CaptureResponse{}, validationError(err)
	}

	detail, err := s.getDetail(ctx, cmd.CommerceCode, cmd.BuyOrder)
	if err != nil {
		return CaptureResponse{}, err
	}

	if !detail.Capturable() {
		s.logger.Warn("Detail not capturable",
			zap.String("buyOrder", cmd.BuyOrder),
			zap.String("status", string(detail.Status)),
			zap.Int64("balance", detail.Balance))
		return CaptureResponse{}, NewServiceError(constants.ErrCodeInvalidState,
			fmt.Errorf("detail is %s with balance %d", detail.Status, detail.Balance))
	}

	if detail.AuthorizationCode != cmd.AuthorizationCode {
		return CaptureResponse{}, NewServiceError(constants.ErrCodeAuthorizationCodeMismatch,
			errors.New("authorization code does not match"))
	}

	if cmd.CaptureAmount > detail.Balance {
		return CaptureResponse{}, NewServiceError(constants.ErrCodeAmountExceedsBalance,
			fmt.Errorf("capture %d exceeds balance %d", cmd.CaptureAmount, detail.Balance))
	}

	release, err := acquire(ctx, s.guard, detailKey("capture", detail), s.deadlines.Capture, s.logger)
	if err != nil {
		return CaptureResponse{}, err
	}
	defer release()

	callCtx, cancel := context.WithTimeout(ctx, s.deadlines.Capture)
	defer cancel()

	started := time.Now()
	resp, err := s.gateway.Capture(callCtx, oneclick.CaptureRequest{
		CommerceCode:      cmd.CommerceCode,
		BuyOrder:          cmd.BuyOrder,
		AuthorizationCode: cmd.AuthorizationCode,
		CaptureAmount:     cmd.CaptureAmount,
	})
	outcome := gatewayOutcome(err, resp.Approved())
	s.metrics.RecordGatewayCall("Capture", outcome, time.Since(started))
	s.metrics.RecordCapture(outcome)
	if err != nil {
		s.logger.Error("Gateway capture failed",
			zap.String("buyOrder", cmd.BuyOrder),
			zap.Error(err))
		return CaptureResponse{}, gatewayError(err)
	}

	result := CaptureResponse{
		ResponseCode:      resp.ResponseCode,
		AuthorizationCode: resp.AuthorizationCode,
		AuthorizationDate: resp.AuthorizationDate,
		CapturedAmount:    resp.CapturedAmount,
		Status:            string(detail.Status),
		Balance:           detail.Balance,
	}

	if !resp.Approved() {
		s.logger.Warn("Capture rejected by gateway",
			zap.String("buyOrder", cmd.BuyOrder),
			zap.Int("responseCode", resp.ResponseCode))
		return result, nil
	}

	status, balance := detail.AfterCapture(cmd.CaptureAmount)
	movement := model.DetailMovement{
		DetailID:          detail.ID,
		Kind:              model.MovementKindCapture,
		Amount:            cmd.CaptureAmount,
		AuthorizationCode: resp.AuthorizationCode,
		ResponseCode:      resp.ResponseCode,
	}

	s.applyMovement(ctx, detail, repository.DetailState{Status: status, Balance: balance}, &movement)

	result.Status = string(status)
	result.Balance = balance

	s.logger.Info("Detail captured",
		zap.String("buyOrder", cmd.BuyOrder),
		zap.Int64("amount", cmd.CaptureAmount),
		zap.Int64("balance", balance))

	publish(ctx, s.events, events.Event{
		Type:         events.TypeTransactionCaptured,
		CommerceCode: cmd.CommerceCode,
		BuyOrder:     cmd.BuyOrder,
		Amount:       cmd.CaptureAmount,
		Status:       string(status),
		OccurredAt:   s.clock.Now(),
	}, s.logger)

	return result, nil
}

func (s *transaction) getDetail(ctx context.Context, commerceCode, buyOrder string) (*model.MallTransactionDetail, error) {
	detail, err := s.transactions.GetDetail(ctx, commerceCode, buyOrder)
	if err == nil {
		return detail, nil
	}

	if errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, NewServiceError(constants.ErrCodeTransactionNotFound, err)
	}

	s.logger.Error("Failed to load detail",
		zap.String("commerceCode", commerceCode),
		zap.String("buyOrder", buyOrder),
		zap.Error(err))
	return nil, NewServiceError(constants.ErrCodeDatabaseError, err)
}

// applyMovement writes the new detail state and its ledger row together. The
// gateway already moved the funds, so a failure here is logged and left for
// status reconciliation instead of failing the caller.
func (s *transaction) applyMovement(ctx context.Context, detail *model.MallTransactionDetail,
	to repository.DetailState, movement *model.DetailMovement) {
	from := repository.DetailState{Status: detail.Status, Balance: detail.Balance}

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.transactions.UpdateDetailState(ctx, detail.ID, from, to); err != nil {
			return err
		}
		return s.movements.Create(ctx, movement)
	})
	if err == nil {
		return
	}

	if errors.Is(err, repository.ErrNoRowsAffected) {
		s.logger.Warn("Detail changed concurrently, left for status reconciliation",
			zap.String("buyOrder", detail.BuyOrder),
			zap.String("kind", string(movement.Kind)))
		s.metrics.RecordDivergence("lost_update")
		return
	}

	s.logger.Error("Critical: gateway movement succeeded but local write failed",
		zap.String("buyOrder", detail.BuyOrder),
		zap.String("kind", string(movement.Kind)),
		zap.Int64("amount", movement.Amount),
		zap.Error(err))
	s.metrics.RecordDivergence("write_failed")
}

func detailKey(op string, detail *model.MallTransactionDetail) string {
	return op + ":" + detail.CommerceCode + ":" + detail.BuyOrder
}
