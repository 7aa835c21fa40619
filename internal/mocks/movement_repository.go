package mocks

import (
	"context"

	"github.com/danielsotopino/api-transbank/internal/model"
	"github.com/stretchr/testify/mock"
)

type MovementRepository struct {
	mock.Mock
}

func (m *MovementRepository) Create(ctx context.Context, movement *model.DetailMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MovementRepository) Ledger(ctx context.Context, detailID string) (model.Ledger, error) {
	args := m.Called(ctx, detailID)
	return args.Get(0).(model.Ledger), args.Error(1)
}
