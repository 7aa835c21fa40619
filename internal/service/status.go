package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/model"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"github.com/danielsotopino/api-transbank/pkg/oneclick"
	"github.com/danielsotopino/api-transbank/pkg/vault"
	"go.uber.org/zap"
)

// Status asks the gateway for the current state of a child and overwrites the
// cached local state when the two disagree.
func (s *transaction) Status(ctx context.Context, query StatusQuery) (StatusResponse, error) {
	if err := s.validator.Validate(query); err != nil {
		return StatusResponse{}, validationError(err)
	}

	local, err := s.transactions.GetDetail(ctx, query.CommerceCode, query.BuyOrder)
	if err != nil && !errors.Is(err, repository.ErrTransactionNotFound) {
		s.logger.Error("Failed to load detail",
			zap.String("buyOrder", query.BuyOrder),
			zap.Error(err))
		return StatusResponse{}, NewServiceError(constants.ErrCodeDatabaseError, err)
	}
	if err != nil {
		local = nil
	}

	buyOrder := query.BuyOrder
	if local != nil && local.Transaction != nil {
		buyOrder = local.Transaction.ParentBuyOrder
	}

	callCtx, cancel := context.WithTimeout(ctx, s.deadlines.Status)
	defer cancel()

	started := time.Now()
	resp, err := s.gateway.Status(callCtx, buyOrder, query.CommerceCode)
	s.metrics.RecordGatewayCall("Status", gatewayOutcome(err, true), time.Since(started))
	if err != nil {
		if errors.Is(err, oneclick.ErrNotFound) {
			return StatusResponse{}, NewServiceError(constants.ErrCodeTransactionNotFound, err)
		}

		s.logger.Error("Gateway status failed",
			zap.String("buyOrder", query.BuyOrder),
			zap.Error(err))
		return StatusResponse{}, gatewayError(err)
	}

	remote, ok := resp.Detail(query.CommerceCode, query.BuyOrder)
	if !ok {
		return StatusResponse{}, NewServiceError(constants.ErrCodeTransactionNotFound, ErrDetailNotInResponse)
	}

	result := StatusResponse{TransactionResponse: fromGateway(resp)}

	if local == nil {
		s.logger.Warn("Gateway knows a detail missing locally",
			zap.String("parentBuyOrder", resp.ParentBuyOrder),
			zap.String("commerceCode", query.CommerceCode),
			zap.String("buyOrder", query.BuyOrder))
		s.metrics.RecordDivergence("missing_local_detail")
		return result, nil
	}

	result.Reconciled = s.reconcile(ctx, local, remote)

	return result, nil
}

func (s *transaction) reconcile(ctx context.Context, local *model.MallTransactionDetail, remote oneclick.DetailResponse) bool {
	from := repository.DetailState{Status: local.Status, Balance: local.Balance}
	to := repository.DetailState{Status: remoteDetailStatus(remote), Balance: local.Balance}
	if remote.Balance != nil {
		to.Balance = *remote.Balance
	}
	switch to.Status {
	case model.DetailStatusCaptured, model.DetailStatusRejected, model.DetailStatusReversed:
		to.Balance = 0
	}

	if from == to {
		return false
	}

	s.logger.Warn("Local detail diverges from gateway",
		zap.String("buyOrder", local.BuyOrder),
		zap.String("localStatus", string(from.Status)),
		zap.String("gatewayStatus", string(to.Status)),
		zap.Int64("localBalance", from.Balance),
		zap.Int64("gatewayBalance", to.Balance))
	s.metrics.RecordDivergence("state")

	if err := s.transactions.UpdateDetailState(ctx, local.ID, from, to); err != nil {
		s.logger.Error("Failed to reconcile detail",
			zap.String("buyOrder", local.BuyOrder),
			zap.Error(err))
		return false
	}

	publish(ctx, s.events, events.Event{
		Type:         events.TypeTransactionReconciled,
		CommerceCode: local.CommerceCode,
		BuyOrder:     local.BuyOrder,
		Amount:       to.Balance,
		Status:       string(to.Status),
		OccurredAt:   s.clock.Now(),
	}, s.logger)

	return true
}

func remoteDetailStatus(d oneclick.DetailResponse) model.DetailStatus {
	if !d.Approved() {
		return model.DetailStatusRejected
	}

	switch strings.ToUpper(d.Status) {
	case "CAPTURED":
		return model.DetailStatusCaptured
	case "REVERSED", "NULLIFIED":
		return model.DetailStatusReversed
	case "FAILED", "REJECTED":
		return model.DetailStatusRejected
	default:
		return model.DetailStatusApproved
	}
}

func fromGateway(resp oneclick.TransactionResponse) TransactionResponse {
	details := make([]TransactionDetail, 0, len(resp.Details))
	statuses := make([]model.MallTransactionDetail, 0, len(resp.Details))
	for _, d := range resp.Details {
		status := remoteDetailStatus(d)
		balance := int64(0)
		if d.Balance != nil {
			balance = *d.Balance
		} else if status == model.DetailStatusApproved {
			balance = d.Amount
		}

		details = append(details, TransactionDetail{
			CommerceCode:       d.CommerceCode,
			BuyOrder:           d.BuyOrder,
			Amount:             d.Amount,
			Balance:            balance,
			Status:             string(status),
			ResponseCode:       d.ResponseCode,
			AuthorizationCode:  d.AuthorizationCode,
			PaymentTypeCode:    d.PaymentTypeCode,
			InstallmentsNumber: d.InstallmentsNumber,
		})
		statuses = append(statuses, model.MallTransactionDetail{Status: status})
	}

	parent := model.MallTransaction{Details: statuses}

	return TransactionResponse{
		ParentBuyOrder:  resp.ParentBuyOrder,
		SessionID:       resp.SessionID,
		CardNumber:      vault.Mask(resp.CardDetail.CardNumber),
		Status:          string(parent.Status()),
		TransactionDate: resp.TransactionDate,
		AccountingDate:  resp.AccountingDate,
		Details:         details,
	}
}
