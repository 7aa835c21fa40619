package service

import (
	"context"
	"errors"
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
)

type InscriptionService interface {
	Start(ctx context.Context, cmd StartInscriptionCommand) (StartInscriptionResponse, error)
	Finish(ctx context.Context, cmd FinishInscriptionCommand) (FinishInscriptionResponse, error)
	Delete(ctx context.Context, cmd DeleteInscriptionCommand) (DeleteInscriptionResponse, error)
	List(ctx context.Context, query ListInscriptionsQuery) (ListInscriptionsResponse, error)
}

type inscription struct {
	repo      repository.InscriptionRepository
	gateway   oneclick.Gateway
	vault     vault.Vault
	guard     guard.KeyGuard
	events    events.Publisher
	validator validator.IXValidator
	metrics   *metrics.Metrics
	clock     Clock
	deadlines config.Deadlines
	ttl       time.Duration
	logger    *zap.Logger
}

func NewInscriptionService(repo repository.InscriptionRepository, gateway oneclick.Gateway, vault vault.Vault,
	keyGuard guard.KeyGuard, publisher events.Publisher, validator validator.IXValidator, metrics *metrics.Metrics,
	clock Clock, cfg *config.Config, logger *zap.Logger) InscriptionService {
	return &inscription{
		repo:      repo,
		gateway:   gateway,
		vault:     vault,
		guard:     keyGuard,
		events:    publisher,
		validator: validator,
		metrics:   metrics,
		clock:     clock,
		deadlines: cfg.Deadlines,
		ttl:       cfg.Limits.InscriptionTTL,
		logger:    logger,
	}
}

func (s *inscription) Start(ctx context.Context, cmd StartInscriptionCommand) (StartInscriptionResponse, error) {
	if err := s.validator.Validate(cmd); err != nil {
		return StartInscriptionResponse{}, validationError(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.deadlines.Start)
	defer cancel()

	started := time.Now()
	resp, err := s.gateway.StartInscription(callCtx, oneclick.StartInscriptionRequest{
		Username:    cmd.Username,
		Email:       cmd.Email,
		ResponseURL: cmd.ResponseURL,
	})
	s.metrics.RecordGatewayCall("StartInscription", gatewayOutcome(err, true), time.Since(started))
	if err != nil {
		s.logger.Error("Gateway start inscription failed",
			zap.String("username", cmd.Username),
			zap.Error(err))
		return StartInscriptionResponse{}, gatewayError(err)
	}

	now := s.clock.Now()
	ins := model.Inscription{
		Username:          cmd.Username,
		Email:             cmd.Email,
		RegistrationToken: resp.Token,
		URLWebpay:         resp.URLWebpay,
		Status:            model.InscriptionStatusPending,
		ExpiresAt:         now.Add(s.ttl),
	}

	if err := s.repo.Create(ctx, &ins); err != nil {
		if errors.Is(err, repository.ErrInscriptionDuplicate) {
			s.logger.Warn("Duplicate registration token",
				zap.String("username", cmd.Username),
				zap.String("token", vault.Redact(resp.Token)))
			return StartInscriptionResponse{}, NewServiceError(constants.ErrCodeDuplicateRegistration, err)
		}

		s.logger.Error("Failed to persist inscription",
			zap.String("username", cmd.Username),
			zap.Error(err))
		return StartInscriptionResponse{}, NewServiceError(constants.ErrCodeDatabaseError, err)
	}

	s.metrics.RecordInscription(string(model.InscriptionStatusPending))
	s.logger.Info("Inscription started",
		zap.String("username", cmd.Username),
		zap.String("inscriptionID", ins.ID),
		zap.Time("expiresAt", ins.ExpiresAt))

	return StartInscriptionResponse{Token: resp.Token, URLWebpay: resp.URLWebpay, ExpiresAt: ins.ExpiresAt}, nil
}

func (s *inscription) Finish(ctx context.Context, cmd FinishInscriptionCommand) (FinishInscriptionResponse, error) {
	if err := s.validator.Validate(cmd); err != nil {
		return FinishInscriptionResponse{}, validationError(err)
	}

	ins, err := s.getByRegistrationToken(ctx, cmd.Token)
	if err != nil {
		return FinishInscriptionResponse{}, err
	}

	if ins.Status != model.InscriptionStatusPending {
		return s.settledResult(ins)
	}

	if ins.Expired(s.clock.Now()) {
		s.logger.Warn("Registration token expired",
			zap.String("inscriptionID", ins.ID),
			zap.Time("expiresAt", ins.ExpiresAt))
		return FinishInscriptionResponse{}, NewServiceError(constants.ErrCodeExpiredToken, errors.New("registration token expired"))
	}

	release, err := acquire(ctx, s.guard, "finish:"+ins.ID, s.deadlines.Finish, s.logger)
	if err != nil {
		return FinishInscriptionResponse{}, err
	}
	defer release()

	// the previous holder of the key may have settled the row already
	ins, err = s.getByRegistrationToken(ctx, cmd.Token)
	if err != nil {
		return FinishInscriptionResponse{}, err
	}
	if ins.Status != model.InscriptionStatusPending {
		return s.settledResult(ins)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.deadlines.Finish)
	defer cancel()

	started := time.Now()
	resp, err := s.gateway.FinishInscription(callCtx, cmd.Token)
	s.metrics.RecordGatewayCall("FinishInscription", gatewayOutcome(err, resp.Approved()), time.Since(started))
	if err != nil {
		// the row stays PENDING so a later finish can still complete it
		s.logger.Error("Gateway finish inscription failed",
			zap.String("inscriptionID", ins.ID),
			zap.Error(err))
		return FinishInscriptionResponse{}, gatewayError(err)
	}

	if resp.Approved() {
		err = s.complete(ins, resp)
	} else {
		err = ins.Fail(resp.ResponseCode)
	}
	if err != nil {
		return FinishInscriptionResponse{}, err
	}

	if err := s.repo.UpdateFromStatus(ctx, ins, model.InscriptionStatusPending); err != nil {
		return s.handleFinishWriteError(ctx, ins, cmd.Token, err)
	}

	s.metrics.RecordInscription(string(ins.Status))
	s.logger.Info("Inscription finished",
		zap.String("inscriptionID", ins.ID),
		zap.String("status", string(ins.Status)),
		zap.Int("responseCode", resp.ResponseCode))

	if ins.Status == model.InscriptionStatusCompleted {
		publish(ctx, s.events, events.Event{
			Type:       events.TypeInscriptionCompleted,
			Username:   ins.Username,
			Status:     string(ins.Status),
			OccurredAt: s.clock.Now(),
		}, s.logger)
	}

	return FinishInscriptionResponse{
		Status:            string(ins.Status),
		ResponseCode:      resp.ResponseCode,
		TbkUser:           resp.TbkUser,
		AuthorizationCode: resp.AuthorizationCode,
		CardType:          resp.CardType,
		CardNumber:        deref(ins.MaskedCardNumber),
	}, nil
}

func (s *inscription) complete(ins *model.Inscription, resp oneclick.FinishInscriptionResponse) error {
	encrypted, err := s.vault.Encrypt(resp.TbkUser)
	if err != nil {
		s.logger.Error("Failed to encrypt permanent token",
			zap.String("inscriptionID", ins.ID),
			zap.Error(err))
		return NewServiceError(constants.ErrCodeVaultError, err)
	}

	hash, err := s.vault.Fingerprint(resp.TbkUser)
	if err != nil {
		s.logger.Error("Failed to fingerprint permanent token",
			zap.String("inscriptionID", ins.ID),
			zap.Error(err))
		return NewServiceError(constants.ErrCodeVaultError, err)
	}

	return ins.Complete(model.CardEnrollment{
		EncryptedToken:    encrypted,
		TokenHash:         hash,
		MaskedCardNumber:  vault.Mask(resp.CardNumber),
		CardBrand:         resp.CardType,
		AuthorizationCode: resp.AuthorizationCode,
		ResponseCode:      resp.ResponseCode,
	})
}

func (s *inscription) handleFinishWriteError(ctx context.Context, ins *model.Inscription, token string, err error) (FinishInscriptionResponse, error) {
	if errors.Is(err, repository.ErrNoRowsAffected) {
		// a concurrent finish won, answer with what it stored
		s.logger.Warn("Inscription finished concurrently", zap.String("inscriptionID", ins.ID))

		stored, getErr := s.getByRegistrationToken(ctx, token)
		if getErr != nil {
			return FinishInscriptionResponse{}, getErr
		}
		if stored.Terminal() && stored.Status != model.InscriptionStatusDeleted {
			return s.finishedResult(stored)
		}
		return FinishInscriptionResponse{}, NewServiceError(constants.ErrCodeInvalidState, err)
	}

	if errors.Is(err, repository.ErrInscriptionDuplicate) {
		s.logger.Warn("Permanent token already registered", zap.String("inscriptionID", ins.ID))
		return FinishInscriptionResponse{}, NewServiceError(constants.ErrCodeDuplicateRegistration, err)
	}

	s.logger.Error("Critical: inscription finished at gateway but local write failed",
		zap.String("inscriptionID", ins.ID),
		zap.String("status", string(ins.Status)),
		zap.Error(err))

	return FinishInscriptionResponse{}, NewServiceError(constants.ErrCodeDatabaseError, err)
}

// finishedResult answers a repeated finish from the stored row.
// settledResult answers a finish for a row that is no longer pending.
func (s *inscription) settledResult(ins *model.Inscription) (FinishInscriptionResponse, error) {
	if ins.Status == model.InscriptionStatusDeleted {
		return FinishInscriptionResponse{}, NewServiceError(constants.ErrCodeInvalidState, model.ErrInvalidTransition)
	}

	return s.finishedResult(ins)
}

func (s *inscription) finishedResult(ins *model.Inscription) (FinishInscriptionResponse, error) {
	result := FinishInscriptionResponse{
		Status:            string(ins.Status),
		AuthorizationCode: deref(ins.AuthorizationCode),
		CardType:          deref(ins.CardBrand),
		CardNumber:        deref(ins.MaskedCardNumber),
	}
	if ins.ResponseCode != nil {
		result.ResponseCode = *ins.ResponseCode
	}

	if ins.Status == model.InscriptionStatusCompleted && ins.PermanentToken != nil {
		tbkUser, err := s.vault.Decrypt(*ins.PermanentToken)
		if err != nil {
			s.logger.Error("Failed to decrypt permanent token",
				zap.String("inscriptionID", ins.ID),
				zap.Error(err))
			return FinishInscriptionResponse{}, NewServiceError(constants.ErrCodeVaultError, err)
		}
		result.TbkUser = tbkUser
	}

	return result, nil
}

func (s *inscription) Delete(ctx context.Context, cmd DeleteInscriptionCommand) (DeleteInscriptionResponse, error) {
	if err := s.validator.Validate(cmd); err != nil {
		return DeleteInscriptionResponse{}, validationError(err)
	}

	hash, err := s.vault.Fingerprint(cmd.TbkUser)
	if err != nil {
		s.logger.Error("Failed to fingerprint permanent token", zap.Error(err))
		return DeleteInscriptionResponse{}, NewServiceError(constants.ErrCodeVaultError, err)
	}

	ins, err := s.getByTokenHash(ctx, cmd.Username, hash)
	if err != nil {
		return DeleteInscriptionResponse{}, err
	}

	if deleted, ok := ins.Presence().(model.Deleted); ok {
		return DeleteInscriptionResponse{DeletedAt: deleted.At}, nil
	}

	if ins.Status != model.InscriptionStatusCompleted {
		return DeleteInscriptionResponse{}, NewServiceError(constants.ErrCodeInvalidState, model.ErrInvalidTransition)
	}

	release, err := acquire(ctx, s.guard, "delete:"+ins.ID, s.deadlines.Delete, s.logger)
	if err != nil {
		return DeleteInscriptionResponse{}, err
	}
	defer release()

	callCtx, cancel := context.WithTimeout(ctx, s.deadlines.Delete)
	defer cancel()

	started := time.Now()
	err = s.gateway.DeleteInscription(callCtx, oneclick.DeleteInscriptionRequest{
		TbkUser:  cmd.TbkUser,
		Username: cmd.Username,
	})
	s.metrics.RecordGatewayCall("DeleteInscription", gatewayOutcome(err, true), time.Since(started))

	switch {
	case errors.Is(err, oneclick.ErrNotFound):
		s.logger.Warn("Inscription already gone at gateway", zap.String("inscriptionID", ins.ID))
	case err != nil:
		s.logger.Error("Gateway delete inscription failed",
			zap.String("inscriptionID", ins.ID),
			zap.Error(err))
		return DeleteInscriptionResponse{}, gatewayError(err)
	}

	if err := ins.MarkDeleted(s.clock.Now()); err != nil {
		return DeleteInscriptionResponse{}, NewServiceError(constants.ErrCodeInvalidState, err)
	}

	if err := s.repo.UpdateFromStatus(ctx, ins, model.InscriptionStatusCompleted); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			stored, getErr := s.getByTokenHash(ctx, cmd.Username, hash)
			if getErr == nil {
				if deleted, ok := stored.Presence().(model.Deleted); ok {
					return DeleteInscriptionResponse{DeletedAt: deleted.At}, nil
				}
			}
		}

		s.logger.Error("Failed to mark inscription deleted",
			zap.String("inscriptionID", ins.ID),
			zap.Error(err))
		return DeleteInscriptionResponse{}, NewServiceError(constants.ErrCodeDatabaseError, err)
	}

	s.metrics.RecordInscription(string(model.InscriptionStatusDeleted))
	s.logger.Info("Inscription deleted", zap.String("inscriptionID", ins.ID))

	publish(ctx, s.events, events.Event{
		Type:       events.TypeInscriptionDeleted,
		Username:   ins.Username,
		Status:     string(ins.Status),
		OccurredAt: *ins.DeletedAt,
	}, s.logger)

	return DeleteInscriptionResponse{DeletedAt: *ins.DeletedAt}, nil
}

func (s *inscription) List(ctx context.Context, query ListInscriptionsQuery) (ListInscriptionsResponse, error) {
	if err := s.validator.Validate(query); err != nil {
		return ListInscriptionsResponse{}, validationError(err)
	}

	inscriptions, err := s.repo.ListActive(ctx, query.Username)
	if err != nil {
		s.logger.Error("Failed to list inscriptions",
			zap.String("username", query.Username),
			zap.Error(err))
		return ListInscriptionsResponse{}, NewServiceError(constants.ErrCodeDatabaseError, err)
	}

	items := make([]Inscription, 0, len(inscriptions))
	for _, ins := range inscriptions {
		items = append(items, Inscription{
			ID:                ins.ID,
			Status:            string(ins.Status),
			CardType:          deref(ins.CardBrand),
			CardNumber:        deref(ins.MaskedCardNumber),
			AuthorizationCode: deref(ins.AuthorizationCode),
			CreatedAt:         ins.CreatedAt,
		})
	}

	return ListInscriptionsResponse{Inscriptions: items}, nil
}

func (s *inscription) getByRegistrationToken(ctx context.Context, token string) (*model.Inscription, error) {
	ins, err := s.repo.GetByRegistrationToken(ctx, token)
	if err == nil {
		return ins, nil
	}

	if errors.Is(err, repository.ErrInscriptionNotFound) {
		return nil, NewServiceError(constants.ErrCodeInscriptionNotFound, err)
	}

	s.logger.Error("Failed to load inscription", zap.Error(err))
	return nil, NewServiceError(constants.ErrCodeDatabaseError, err)
}

func (s *inscription) getByTokenHash(ctx context.Context, username, hash string) (*model.Inscription, error) {
	ins, err := s.repo.GetByTokenHash(ctx, username, hash)
	if err == nil {
		return ins, nil
	}

	if errors.Is(err, repository.ErrInscriptionNotFound) {
		return nil, NewServiceError(constants.ErrCodeInscriptionNotFound, err)
	}

	s.logger.Error("Failed to load inscription",
		zap.String("username", username),
		zap.Error(err))
	return nil, NewServiceError(constants.ErrCodeDatabaseError, err)
}
