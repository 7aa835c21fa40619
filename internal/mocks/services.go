package mocks

import (
	"context"

	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/stretchr/testify/mock"
)

type InscriptionService struct {
	mock.Mock
}

func (m *InscriptionService) Start(ctx context.Context, cmd service.StartInscriptionCommand) (service.StartInscriptionResponse, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(service.StartInscriptionResponse), args.Error(1)
}

func (m *InscriptionService) Finish(ctx context.Context, cmd service.FinishInscriptionCommand) (service.FinishInscriptionResponse, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(service.FinishInscriptionResponse), args.Error(1)
}

func (m *InscriptionService) Delete(ctx context.Context, cmd service.DeleteInscriptionCommand) (service.DeleteInscriptionResponse, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(service.DeleteInscriptionResponse), args.Error(1)
}

func (m *InscriptionService) List(ctx context.Context, query service.ListInscriptionsQuery) (service.ListInscriptionsResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(service.ListInscriptionsResponse), args.Error(1)
}

type TransactionService struct {
	mock.Mock
}

func (m *TransactionService) Authorize(ctx context.Context, cmd service.AuthorizeCommand) (service.TransactionResponse, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(service.TransactionResponse), args.Error(1)
}

func (m *TransactionService) Capture(ctx context.Context, cmd service.CaptureCommand) (service.CaptureResponse, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(service.CaptureResponse), args.Error(1)
}

func (m *TransactionService) Refund(ctx context.Context, cmd service.RefundCommand) (service.RefundResponse, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(service.RefundResponse), args.Error(1)
}

func (m *TransactionService) Status(ctx context.Context, query service.StatusQuery) (service.StatusResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(service.StatusResponse), args.Error(1)
}

type HistoryService struct {
	mock.Mock
}

func (m *HistoryService) History(ctx context.Context, query service.HistoryQuery) (service.HistoryResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(service.HistoryResponse), args.Error(1)
}

type RecoveryService struct {
	mock.Mock
}

func (m *RecoveryService) RecoverAuthorization(ctx context.Context, cmd service.RecoverAuthorizationCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}
