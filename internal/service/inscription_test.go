package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/guard"
	"github.com/danielsotopino/api-transbank/internal/mocks"
	"github.com/danielsotopino/api-transbank/internal/model"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/danielsotopino/api-transbank/internal/validator"
	"github.com/danielsotopino/api-transbank/pkg/oneclick"
	"github.com/danielsotopino/api-transbank/pkg/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type inscriptionDeps struct {
	repo    *mocks.InscriptionRepository
	gateway *mocks.Gateway
	events  *mocks.EventPublisher
	guard   guard.KeyGuard
	vault   vault.Vault
}

func newInscriptionDeps() *inscriptionDeps {
	return &inscriptionDeps{
		repo:    &mocks.InscriptionRepository{},
		gateway: &mocks.Gateway{},
		events:  &mocks.EventPublisher{},
		guard:   guard.NewNoopGuard(),
		vault:   testVault(),
	}
}

func (d *inscriptionDeps) service() service.InscriptionService {
	return service.NewInscriptionService(d.repo, d.gateway, d.vault, d.guard, d.events,
		validator.NewXValidator(nil), nil, fixedClock{now: testNow}, testConfig(), zap.NewNop())
}

func pendingInscription() *model.Inscription {
	return &model.Inscription{
		ID:                "ins-1",
		Username:          "alice",
		Email:             "a@x.com",
		RegistrationToken: "T1",
		Status:            model.InscriptionStatusPending,
		ExpiresAt:         testNow.Add(30 * time.Minute),
	}
}

func completedInscription(t *testing.T, tbkUser string) *model.Inscription {
	t.Helper()

	encrypted, err := testVault().Encrypt(tbkUser)
	require.NoError(t, err)

	ins := pendingInscription()
	require.NoError(t, ins.Complete(model.CardEnrollment{
		EncryptedToken:    encrypted,
		TokenHash:         fingerprint(t, tbkUser),
		MaskedCardNumber:  "****6623",
		CardBrand:         "Visa",
		AuthorizationCode: "1213",
		ResponseCode:      0,
	}))
	return ins
}

func TestInscription_Start(t *testing.T) {
	cmd := service.StartInscriptionCommand{Username: "alice", Email: "a@x.com", ResponseURL: "https://cb.example/return"}

	t.Run("Persists a pending inscription with a sixty minute expiry", func(t *testing.T) {
		d := newInscriptionDeps()

		d.gateway.On("StartInscription", mock.Anything, oneclick.StartInscriptionRequest{
			Username: "alice", Email: "a@x.com", ResponseURL: "https://cb.example/return",
		}).Return(oneclick.StartInscriptionResponse{Token: "T1", URLWebpay: "https://webpay/init"}, nil)

		d.repo.On("Create", mock.Anything, mock.MatchedBy(func(ins *model.Inscription) bool {
			return ins.Username == "alice" &&
				ins.RegistrationToken == "T1" &&
				ins.Status == model.InscriptionStatusPending &&
				ins.ExpiresAt.Equal(testNow.Add(60*time.Minute))
		})).Return(nil)

		resp, err := d.service().Start(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, "T1", resp.Token)
		assert.Equal(t, "https://webpay/init", resp.URLWebpay)
		assert.Equal(t, testNow.Add(60*time.Minute), resp.ExpiresAt)
		d.gateway.AssertExpectations(t)
		d.repo.AssertExpectations(t)
	})

	t.Run("Invalid input never reaches the gateway", func(t *testing.T) {
		for _, bad := range []service.StartInscriptionCommand{
			{Username: "alice smith", Email: "a@x.com", ResponseURL: "https://cb"},
			{Username: "alice", Email: "not-an-email", ResponseURL: "https://cb"},
			{Username: "alice", Email: "a@x.com", ResponseURL: "cb/return"},
		} {
			d := newInscriptionDeps()

			_, err := d.service().Start(context.Background(), bad)

			requireCode(t, err, constants.ErrCodeValidationFailed)
			d.gateway.AssertNotCalled(t, "StartInscription", mock.Anything, mock.Anything)
		}
	})

	t.Run("Gateway timeout is reported as timeout", func(t *testing.T) {
		d := newInscriptionDeps()
		d.gateway.On("StartInscription", mock.Anything, mock.Anything).
			Return(oneclick.StartInscriptionResponse{}, oneclick.ErrTimeout)

		_, err := d.service().Start(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeGatewayTimeout)
		d.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Gateway failure is reported as gateway error", func(t *testing.T) {
		d := newInscriptionDeps()
		d.gateway.On("StartInscription", mock.Anything, mock.Anything).
			Return(oneclick.StartInscriptionResponse{}, oneclick.ErrServerError)

		_, err := d.service().Start(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeGatewayError)
	})

	t.Run("Duplicate registration token", func(t *testing.T) {
		d := newInscriptionDeps()
		d.gateway.On("StartInscription", mock.Anything, mock.Anything).
			Return(oneclick.StartInscriptionResponse{Token: "T1"}, nil)
		d.repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrInscriptionDuplicate)

		_, err := d.service().Start(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeDuplicateRegistration)
	})
}

func TestInscription_Finish(t *testing.T) {
	cmd := service.FinishInscriptionCommand{Token: "T1"}

	t.Run("Approved finish completes the inscription", func(t *testing.T) {
		d := newInscriptionDeps()
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(pendingInscription(), nil)
		d.gateway.On("FinishInscription", mock.Anything, "T1").Return(oneclick.FinishInscriptionResponse{
			ResponseCode:      0,
			TbkUser:           "tbk-user-1",
			AuthorizationCode: "1213",
			CardType:          "Visa",
			CardNumber:        "XXXXXXXXXXXX6623",
		}, nil)

		hash := fingerprint(t, "tbk-user-1")
		d.repo.On("UpdateFromStatus", mock.Anything, mock.MatchedBy(func(ins *model.Inscription) bool {
			if ins.Status != model.InscriptionStatusCompleted || ins.PermanentToken == nil {
				return false
			}
			plain, err := testVault().Decrypt(*ins.PermanentToken)
			return err == nil && plain == "tbk-user-1" &&
				*ins.PermanentTokenHash == hash &&
				*ins.MaskedCardNumber == "****6623" &&
				*ins.CardBrand == "Visa"
		}), model.InscriptionStatusPending).Return(nil)
		d.events.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
			return e.Type == events.TypeInscriptionCompleted && e.Username == "alice"
		})).Return(nil)

		resp, err := d.service().Finish(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, string(model.InscriptionStatusCompleted), resp.Status)
		assert.Equal(t, "tbk-user-1", resp.TbkUser)
		assert.Equal(t, "****6623", resp.CardNumber)
		assert.Equal(t, "1213", resp.AuthorizationCode)
		d.repo.AssertExpectations(t)
		d.events.AssertExpectations(t)
	})

	t.Run("Rejected finish keeps the response code", func(t *testing.T) {
		d := newInscriptionDeps()
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(pendingInscription(), nil)
		d.gateway.On("FinishInscription", mock.Anything, "T1").
			Return(oneclick.FinishInscriptionResponse{ResponseCode: -96}, nil)
		d.repo.On("UpdateFromStatus", mock.Anything, mock.MatchedBy(func(ins *model.Inscription) bool {
			return ins.Status == model.InscriptionStatusFailed && *ins.ResponseCode == -96 && ins.PermanentToken == nil
		}), model.InscriptionStatusPending).Return(nil)

		resp, err := d.service().Finish(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, string(model.InscriptionStatusFailed), resp.Status)
		assert.Equal(t, -96, resp.ResponseCode)
		d.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("Expired token never reaches the gateway", func(t *testing.T) {
		d := newInscriptionDeps()
		ins := pendingInscription()
		ins.ExpiresAt = testNow.Add(-time.Second)
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(ins, nil)

		_, err := d.service().Finish(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeExpiredToken)
		d.gateway.AssertNotCalled(t, "FinishInscription", mock.Anything, mock.Anything)
	})

	t.Run("Completed inscription returns the cached result", func(t *testing.T) {
		d := newInscriptionDeps()
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(completedInscription(t, "tbk-user-1"), nil)

		resp, err := d.service().Finish(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, "tbk-user-1", resp.TbkUser)
		assert.Equal(t, "****6623", resp.CardNumber)
		d.gateway.AssertNotCalled(t, "FinishInscription", mock.Anything, mock.Anything)
	})

	t.Run("Failed inscription returns the cached result", func(t *testing.T) {
		d := newInscriptionDeps()
		ins := pendingInscription()
		require.NoError(t, ins.Fail(-1))
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(ins, nil)

		resp, err := d.service().Finish(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, -1, resp.ResponseCode)
		assert.Empty(t, resp.TbkUser)
		d.gateway.AssertNotCalled(t, "FinishInscription", mock.Anything, mock.Anything)
	})

	t.Run("Deleted inscription is an invalid state", func(t *testing.T) {
		d := newInscriptionDeps()
		ins := completedInscription(t, "tbk-user-1")
		require.NoError(t, ins.MarkDeleted(testNow))
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(ins, nil)

		_, err := d.service().Finish(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeInvalidState)
	})

	t.Run("Gateway timeout leaves the inscription pending", func(t *testing.T) {
		d := newInscriptionDeps()
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(pendingInscription(), nil)
		d.gateway.On("FinishInscription", mock.Anything, "T1").
			Return(oneclick.FinishInscriptionResponse{}, oneclick.ErrTimeout)

		_, err := d.service().Finish(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeGatewayTimeout)
		d.repo.AssertNotCalled(t, "UpdateFromStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown token", func(t *testing.T) {
		d := newInscriptionDeps()
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(nil, repository.ErrInscriptionNotFound)

		_, err := d.service().Finish(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeInscriptionNotFound)
	})

	t.Run("Concurrent finish in flight", func(t *testing.T) {
		d := newInscriptionDeps()
		keyGuard := &mocks.KeyGuard{}
		d.guard = keyGuard
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(pendingInscription(), nil)
		keyGuard.On("Acquire", mock.Anything, "finish:ins-1", 60*time.Second).Return(guard.ErrInFlight)

		_, err := d.service().Finish(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeOperationInProgress)
		d.gateway.AssertNotCalled(t, "FinishInscription", mock.Anything, mock.Anything)
	})

	t.Run("Finish settled while waiting for the key returns the stored result", func(t *testing.T) {
		d := newInscriptionDeps()
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(pendingInscription(), nil).Once()
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(completedInscription(t, "tbk-user-1"), nil).Once()

		resp, err := d.service().Finish(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, string(model.InscriptionStatusCompleted), resp.Status)
		assert.Equal(t, "tbk-user-1", resp.TbkUser)
		d.repo.AssertNumberOfCalls(t, "GetByRegistrationToken", 2)
		d.gateway.AssertNotCalled(t, "FinishInscription", mock.Anything, mock.Anything)
		d.repo.AssertNotCalled(t, "UpdateFromStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unavailable guard does not block the finish", func(t *testing.T) {
		d := newInscriptionDeps()
		keyGuard := &mocks.KeyGuard{}
		d.guard = keyGuard
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(pendingInscription(), nil)
		keyGuard.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("dial tcp: refused"))
		d.gateway.On("FinishInscription", mock.Anything, "T1").
			Return(oneclick.FinishInscriptionResponse{ResponseCode: -1}, nil)
		d.repo.On("UpdateFromStatus", mock.Anything, mock.Anything, model.InscriptionStatusPending).Return(nil)

		_, err := d.service().Finish(context.Background(), cmd)

		require.NoError(t, err)
		d.gateway.AssertNumberOfCalls(t, "FinishInscription", 1)
	})

	t.Run("Vault failure keeps the inscription pending", func(t *testing.T) {
		d := newInscriptionDeps()
		d.vault = vault.NewVault(vault.Config{Key: "short"})
		d.repo.On("GetByRegistrationToken", mock.Anything, "T1").Return(pendingInscription(), nil)
		d.gateway.On("FinishInscription", mock.Anything, "T1").
			Return(oneclick.FinishInscriptionResponse{TbkUser: "tbk-user-1"}, nil)

		_, err := d.service().Finish(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeVaultError)
		d.repo.AssertNotCalled(t, "UpdateFromStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestInscription_Delete(t *testing.T) {
	cmd := service.DeleteInscriptionCommand{Username: "alice", TbkUser: "tbk-user-1"}

	t.Run("Completed inscription is deleted at the gateway first", func(t *testing.T) {
		d := newInscriptionDeps()
		d.repo.On("GetByTokenHash", mock.Anything, "alice", fingerprint(t, "tbk-user-1")).
			Return(completedInscription(t, "tbk-user-1"), nil)
		d.gateway.On("DeleteInscription", mock.Anything, oneclick.DeleteInscriptionRequest{
			TbkUser: "tbk-user-1", Username: "alice",
		}).Return(nil)
		d.repo.On("UpdateFromStatus", mock.Anything, mock.MatchedBy(func(ins *model.Inscription) bool {
			return ins.Status == model.InscriptionStatusDeleted && ins.DeletedAt.Equal(testNow)
		}), model.InscriptionStatusCompleted).Return(nil)
		d.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		resp, err := d.service().Delete(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, testNow, resp.DeletedAt)
		d.gateway.AssertExpectations(t)
		d.repo.AssertExpectations(t)
	})

	t.Run("Repeated delete returns the original time", func(t *testing.T) {
		d := newInscriptionDeps()
		ins := completedInscription(t, "tbk-user-1")
		deletedAt := testNow.Add(-time.Hour)
		require.NoError(t, ins.MarkDeleted(deletedAt))
		d.repo.On("GetByTokenHash", mock.Anything, "alice", mock.Anything).Return(ins, nil)

		resp, err := d.service().Delete(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, deletedAt, resp.DeletedAt)
		d.gateway.AssertNotCalled(t, "DeleteInscription", mock.Anything, mock.Anything)
	})

	t.Run("Pending inscription cannot be deleted", func(t *testing.T) {
		d := newInscriptionDeps()
		d.repo.On("GetByTokenHash", mock.Anything, "alice", mock.Anything).Return(pendingInscription(), nil)

		_, err := d.service().Delete(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeInvalidState)
	})

	t.Run("Unknown inscription", func(t *testing.T) {
		d := newInscriptionDeps()
		d.repo.On("GetByTokenHash", mock.Anything, "alice", mock.Anything).Return(nil, repository.ErrInscriptionNotFound)

		_, err := d.service().Delete(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeInscriptionNotFound)
	})

	t.Run("Gateway failure keeps the inscription", func(t *testing.T) {
		d := newInscriptionDeps()
		d.repo.On("GetByTokenHash", mock.Anything, "alice", mock.Anything).
			Return(completedInscription(t, "tbk-user-1"), nil)
		d.gateway.On("DeleteInscription", mock.Anything, mock.Anything).Return(oneclick.ErrServerError)

		_, err := d.service().Delete(context.Background(), cmd)

		requireCode(t, err, constants.ErrCodeGatewayError)
		d.repo.AssertNotCalled(t, "UpdateFromStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestInscription_List(t *testing.T) {
	d := newInscriptionDeps()
	ins := completedInscription(t, "tbk-user-1")
	d.repo.On("ListActive", mock.Anything, "alice").Return([]model.Inscription{*ins}, nil)

	resp, err := d.service().List(context.Background(), service.ListInscriptionsQuery{Username: "alice"})

	require.NoError(t, err)
	require.Len(t, resp.Inscriptions, 1)
	assert.Equal(t, "****6623", resp.Inscriptions[0].CardNumber)
	assert.Equal(t, "Visa", resp.Inscriptions[0].CardType)
	assert.Equal(t, string(model.InscriptionStatusCompleted), resp.Inscriptions[0].Status)
}
