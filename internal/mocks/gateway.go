package mocks

import (
	"context"

	"github.com/danielsotopino/api-transbank/pkg/oneclick"
	"github.com/stretchr/testify/mock"
)

type Gateway struct {
	mock.Mock
}

func (m *Gateway) StartInscription(ctx context.Context, request oneclick.StartInscriptionRequest) (oneclick.StartInscriptionResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(oneclick.StartInscriptionResponse), args.Error(1)
}

func (m *Gateway) FinishInscription(ctx context.Context, token string) (oneclick.FinishInscriptionResponse, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(oneclick.FinishInscriptionResponse), args.Error(1)
}

func (m *Gateway) DeleteInscription(ctx context.Context, request oneclick.DeleteInscriptionRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *Gateway) Authorize(ctx context.Context, request oneclick.AuthorizeRequest) (oneclick.TransactionResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(oneclick.TransactionResponse), args.Error(1)
}

func (m *Gateway) Status(ctx context.Context, buyOrder, commerceCode string) (oneclick.TransactionResponse, error) {
	args := m.Called(ctx, buyOrder, commerceCode)
	return args.Get(0).(oneclick.TransactionResponse), args.Error(1)
}

func (m *Gateway) Capture(ctx context.Context, request oneclick.CaptureRequest) (oneclick.CaptureResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(oneclick.CaptureResponse), args.Error(1)
}

func (m *Gateway) Refund(ctx context.Context, request oneclick.RefundRequest) (oneclick.RefundResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(oneclick.RefundResponse), args.Error(1)
}
