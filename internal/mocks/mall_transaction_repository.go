package mocks

import (
	"context"

	"github.com/danielsotopino/api-transbank/internal/model"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MallTransactionRepository struct {
	mock.Mock
}

func (m *MallTransactionRepository) Create(ctx context.Context, transaction *model.MallTransaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MallTransactionRepository) ExistsParentBuyOrder(ctx context.Context, parentBuyOrder string) (bool, error) {
	args := m.Called(ctx, parentBuyOrder)
	return args.Bool(0), args.Error(1)
}

func (m *MallTransactionRepository) FindExistingDetails(ctx context.Context, keys []repository.DetailKey) ([]repository.DetailKey, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.DetailKey), args.Error(1)
}

func (m *MallTransactionRepository) GetByParentBuyOrder(ctx context.Context, parentBuyOrder string) (*model.MallTransaction, error) {
	args := m.Called(ctx, parentBuyOrder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MallTransaction), args.Error(1)
}

func (m *MallTransactionRepository) GetDetail(ctx context.Context, commerceCode, buyOrder string) (*model.MallTransactionDetail, error) {
	args := m.Called(ctx, commerceCode, buyOrder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MallTransactionDetail), args.Error(1)
}

func (m *MallTransactionRepository) UpdateDetailState(ctx context.Context, detailID string, from, to repository.DetailState) error {
	args := m.Called(ctx, detailID, from, to)
	return args.Error(0)
}
