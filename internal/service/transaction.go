package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/guard"
	"github.com/danielsotopino/api-transbank/internal/metrics"
	"github.com/danielsotopino/api-transbank/internal/model"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"github.com/danielsotopino/api-transbank/internal/validator"
	"github.com/danielsotopino/api-transbank/pkg/oneclick"
	"github.com/danielsotopino/api-transbank/pkg/vault"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type TransactionService interface {
	Authorize(ctx context.Context, cmd AuthorizeCommand) (TransactionResponse, error)
	Capture(ctx context.Context, cmd CaptureCommand) (CaptureResponse, error)
	Refund(ctx context.Context, cmd RefundCommand) (RefundResponse, error)
	Status(ctx context.Context, query StatusQuery) (StatusResponse, error)
}

// RecoveryPublisher hands an authorization whose local write failed to the
// recovery worker.
type RecoveryPublisher interface {
	Publish(ctx context.Context, cmd RecoverAuthorizationCommand) error
}

type transaction struct {
	inscriptions repository.InscriptionRepository
	transactions repository.MallTransactionRepository
	movements    repository.MovementRepository
	txManager    repository.TxManager
	gateway      oneclick.Gateway
	vault        vault.Vault
	guard        guard.KeyGuard
	events       events.Publisher
	recovery     RecoveryPublisher
	validator    validator.IXValidator
	metrics      *metrics.Metrics
	clock        Clock
	deadlines    config.Deadlines
	limits       config.Limits
	logger       *zap.Logger
}

func NewTransactionService(inscriptions repository.InscriptionRepository, transactions repository.MallTransactionRepository,
	movements repository.MovementRepository, txManager repository.TxManager, gateway oneclick.Gateway, vault vault.Vault,
	keyGuard guard.KeyGuard, publisher events.Publisher, recovery RecoveryPublisher, validator validator.IXValidator,
	metrics *metrics.Metrics, clock Clock, cfg *config.Config, logger *zap.Logger) TransactionService {
	return &transaction{
		inscriptions: inscriptions,
		transactions: transactions,
		movements:    movements,
		txManager:    txManager,
		gateway:      gateway,
		vault:        vault,
		guard:        keyGuard,
		events:       publisher,
		recovery:     recovery,
		validator:    validator,
		metrics:      metrics,
		clock:        clock,
		deadlines:    cfg.Deadlines,
		limits:       cfg.Limits,
		logger:       logger,
	}
}

func (s *transaction) Authorize(ctx context.Context, cmd AuthorizeCommand) (TransactionResponse, error) {
	if err := s.validateAuthorize(cmd); err != nil {
		return TransactionResponse{}, err
	}

	ins, err := s.completedInscription(ctx, cmd.Username, cmd.TbkUser)
	if err != nil {
		return TransactionResponse{}, err
	}

	if err := s.ensureNewBuyOrders(ctx, cmd); err != nil {
		return TransactionResponse{}, err
	}

	release, err := acquire(ctx, s.guard, "authorize:"+cmd.ParentBuyOrder, s.deadlines.Authorize, s.logger)
	if err != nil {
		return TransactionResponse{}, err
	}
	defer release()

	// the previous holder of the key may have written the same orders
	if err := s.ensureNewBuyOrders(ctx, cmd); err != nil {
		return TransactionResponse{}, err
	}

	request := oneclick.AuthorizeRequest{
		Username:       cmd.Username,
		TbkUser:        cmd.TbkUser,
		ParentBuyOrder: cmd.ParentBuyOrder,
		Details:        make([]oneclick.DetailRequest, 0, len(cmd.Details)),
	}
	for _, d := range cmd.Details {
		request.Details = append(request.Details, oneclick.DetailRequest{
			CommerceCode:       d.CommerceCode,
			BuyOrder:           d.BuyOrder,
			Amount:             d.Amount,
			InstallmentsNumber: d.InstallmentsNumber,
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, s.deadlines.Authorize)
	defer cancel()

	started := time.Now()
	resp, err := s.gateway.Authorize(callCtx, request)
	s.metrics.RecordGatewayCall("Authorize", gatewayOutcome(err, true), time.Since(started))
	if err != nil {
		// nothing was written, a retry with the same parent buy order is safe
		s.logger.Error("Gateway authorize failed",
			zap.String("parentBuyOrder", cmd.ParentBuyOrder),
			zap.Error(err))
		return TransactionResponse{}, gatewayError(err)
	}

	mall, err := buildMallTransaction(cmd.Username, ins.ID, resp)
	if err != nil {
		s.logger.Error("Failed to encode gateway response",
			zap.String("parentBuyOrder", cmd.ParentBuyOrder),
			zap.Error(err))
	}

	if err == nil {
		err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
			return s.transactions.Create(ctx, mall)
		})
	}
	if err != nil {
		s.recover(ctx, cmd, ins.ID, resp, err)
		return TransactionResponse{}, NewServiceError(constants.ErrCodeInternalError, err)
	}

	detailStatuses := make([]string, 0, len(mall.Details))
	for _, d := range mall.Details {
		detailStatuses = append(detailStatuses, string(d.Status))
	}
	s.metrics.RecordAuthorization(string(mall.Status()), detailStatuses)

	s.logger.Info("Mall transaction authorized",
		zap.String("parentBuyOrder", mall.ParentBuyOrder),
		zap.String("status", string(mall.Status())),
		zap.Int("details", len(mall.Details)),
		zap.Int64("totalAmount", mall.TotalAmount))

	publish(ctx, s.events, events.Event{
		Type:           events.TypeTransactionAuthorized,
		Username:       mall.Username,
		ParentBuyOrder: mall.ParentBuyOrder,
		Amount:         mall.TotalAmount,
		Status:         string(mall.Status()),
		OccurredAt:     s.clock.Now(),
	}, s.logger)

	return toTransactionResponse(mall), nil
}

func (s *transaction) validateAuthorize(cmd AuthorizeCommand) error {
	if err := s.validator.Validate(cmd); err != nil {
		return validationError(err)
	}

	if s.limits.MaxDetails > 0 && len(cmd.Details) > s.limits.MaxDetails {
		return validationError(ErrTooManyDetails)
	}

	seen := make(map[repository.DetailKey]struct{}, len(cmd.Details))
	for _, d := range cmd.Details {
		key := repository.DetailKey{CommerceCode: d.CommerceCode, BuyOrder: d.BuyOrder}
		if _, ok := seen[key]; ok {
			return validationError(fmt.Errorf("%w: %s/%s", ErrDuplicateDetail, d.CommerceCode, d.BuyOrder))
		}
		seen[key] = struct{}{}

		if d.Amount > s.limits.MaxAmount {
			return validationError(fmt.Errorf("%w: %d", ErrAmountOutOfRange, d.Amount))
		}

		if d.InstallmentsNumber < s.limits.MinInstallments || d.InstallmentsNumber > s.limits.MaxInstallments {
			return validationError(fmt.Errorf("%w: %d", ErrInstallmentsOutOfRange, d.InstallmentsNumber))
		}
	}

	return nil
}

// completedInscription resolves the permanent token to the caller's enrolled card.
func (s *transaction) completedInscription(ctx context.Context, username, tbkUser string) (*model.Inscription, error) {
	hash, err := s.vault.Fingerprint(tbkUser)
	if err != nil {
		s.logger.Error("Failed to fingerprint permanent token", zap.Error(err))
		return nil, NewServiceError(constants.ErrCodeVaultError, err)
	}

	ins, err := s.inscriptions.GetByTokenHash(ctx, username, hash)
	if err != nil {
		if errors.Is(err, repository.ErrInscriptionNotFound) {
			return nil, NewServiceError(constants.ErrCodeInscriptionNotFound, err)
		}

		s.logger.Error("Failed to load inscription",
			zap.String("username", username),
			zap.Error(err))
		return nil, NewServiceError(constants.ErrCodeDatabaseError, err)
	}

	if ins.Status != model.InscriptionStatusCompleted {
		return nil, NewServiceError(constants.ErrCodeInscriptionNotFound, ErrInscriptionNotCompleted)
	}

	return ins, nil
}

func (s *transaction) ensureNewBuyOrders(ctx context.Context, cmd AuthorizeCommand) error {
	exists, err := s.transactions.ExistsParentBuyOrder(ctx, cmd.ParentBuyOrder)
	if err != nil {
		s.logger.Error("Failed to check parent buy order", zap.Error(err))
		return NewServiceError(constants.ErrCodeDatabaseError, err)
	}

	if exists {
		s.logger.Warn("Duplicate parent buy order", zap.String("parentBuyOrder", cmd.ParentBuyOrder))
		return NewServiceError(constants.ErrCodeDuplicateBuyOrder, repository.ErrTransactionDuplicate)
	}

	keys := make([]repository.DetailKey, 0, len(cmd.Details))
	for _, d := range cmd.Details {
		keys = append(keys, repository.DetailKey{CommerceCode: d.CommerceCode, BuyOrder: d.BuyOrder})
	}

	existing, err := s.transactions.FindExistingDetails(ctx, keys)
	if err != nil {
		s.logger.Error("Failed to check child buy orders", zap.Error(err))
		return NewServiceError(constants.ErrCodeDatabaseError, err)
	}

	if len(existing) > 0 {
		s.logger.Warn("Duplicate child buy order",
			zap.String("commerceCode", existing[0].CommerceCode),
			zap.String("buyOrder", existing[0].BuyOrder))
		return NewServiceError(constants.ErrCodeDuplicateBuyOrder, repository.ErrTransactionDuplicate)
	}

	return nil
}

// recover runs when the gateway authorized but the local write failed. Funds
// may have moved, so the answer goes to the recovery queue.
func (s *transaction) recover(ctx context.Context, cmd AuthorizeCommand, inscriptionID string,
	resp oneclick.TransactionResponse, cause error) {
	s.logger.Error("Critical: authorization succeeded at gateway but local write failed",
		zap.String("parentBuyOrder", cmd.ParentBuyOrder),
		zap.String("username", cmd.Username),
		zap.Error(cause))

	recoverCmd := RecoverAuthorizationCommand{
		Username:      cmd.Username,
		InscriptionID: inscriptionID,
		Response:      resp,
		FailedAt:      s.clock.Now(),
	}

	if err := s.recovery.Publish(context.WithoutCancel(ctx), recoverCmd); err != nil {
		s.metrics.RecordRecovery("publish_failed")
		s.logger.Error("Critical: failed to enqueue authorization recovery, manual intervention required",
			zap.String("parentBuyOrder", cmd.ParentBuyOrder),
			zap.Error(err))
		return
	}

	s.metrics.RecordRecovery("enqueued")
}

// buildMallTransaction maps an authorize answer to the parent and its
// children. Approved children start with their whole amount capturable.
func buildMallTransaction(username, inscriptionID string, resp oneclick.TransactionResponse) (*model.MallTransaction, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}

	mall := &model.MallTransaction{
		Username:         username,
		InscriptionID:    inscriptionID,
		ParentBuyOrder:   resp.ParentBuyOrder,
		SessionID:        resp.SessionID,
		MaskedCardNumber: vault.Mask(resp.CardDetail.CardNumber),
		TransactionDate:  resp.TransactionDate,
		AccountingDate:   resp.AccountingDate,
		RawResponse:      datatypes.JSON(raw),
		Details:          make([]model.MallTransactionDetail, 0, len(resp.Details)),
	}

	for _, d := range resp.Details {
		detail := model.MallTransactionDetail{
			CommerceCode:       d.CommerceCode,
			BuyOrder:           d.BuyOrder,
			Amount:             d.Amount,
			InstallmentsNumber: d.InstallmentsNumber,
			AuthorizationCode:  d.AuthorizationCode,
			PaymentTypeCode:    d.PaymentTypeCode,
			ResponseCode:       d.ResponseCode,
			Status:             model.DetailStatusRejected,
		}
		if d.Approved() {
			detail.Status = model.DetailStatusApproved
			detail.Balance = d.Amount
		}

		mall.TotalAmount += d.Amount
		mall.Details = append(mall.Details, detail)
	}

	return mall, nil
}
