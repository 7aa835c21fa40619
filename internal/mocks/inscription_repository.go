package mocks

import (
	"context"

	"github.com/danielsotopino/api-transbank/internal/model"
	"github.com/stretchr/testify/mock"
)

type InscriptionRepository struct {
	mock.Mock
}

func (m *InscriptionRepository) Create(ctx context.Context, inscription *model.Inscription) error {
	args := m.Called(ctx, inscription)
	return args.Error(0)
}

func (m *InscriptionRepository) GetByRegistrationToken(ctx context.Context, token string) (*model.Inscription, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Inscription), args.Error(1)
}

func (m *InscriptionRepository) GetByTokenHash(ctx context.Context, username, tokenHash string) (*model.Inscription, error) {
	args := m.Called(ctx, username, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Inscription), args.Error(1)
}

func (m *InscriptionRepository) ListActive(ctx context.Context, username string) ([]model.Inscription, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Inscription), args.Error(1)
}

func (m *InscriptionRepository) UpdateFromStatus(ctx context.Context, inscription *model.Inscription, from model.InscriptionStatus) error {
	args := m.Called(ctx, inscription, from)
	return args.Error(0)
}
