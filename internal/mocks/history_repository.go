package mocks

import (
	"context"

	"github.com/danielsotopino/api-transbank/internal/model"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"github.com/stretchr/testify/mock"
)

type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) Search(ctx context.Context, query repository.HistoryQuery) ([]model.MallTransaction, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.MallTransaction), args.Get(1).(int64), args.Error(2)
}
