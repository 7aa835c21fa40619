package repository

import (
	"context"

	"github.com/danielsotopino/api-transbank/internal/model"
	"gorm.io/gorm"
)

type MovementRepository interface {
	Create(ctx context.Context, movement *model.DetailMovement) error
	Ledger(ctx context.Context, detailID string) (model.Ledger, error)
}

type Movement struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &Movement{db: db}
}

func (r *Movement) Create(ctx context.Context, movement *model.DetailMovement) error {
	return GetTx(ctx, r.db).Create(movement).Error
}

func (r *Movement) Ledger(ctx context.Context, detailID string) (model.Ledger, error) {
	var rows []struct {
		Kind  model.MovementKind
		Total int64
	}

	err := GetTx(ctx, r.db).Model(&model.DetailMovement{}).
		Select("kind, COALESCE(SUM(amount), 0) AS total").
		Where("detail_id = ?", detailID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return model.Ledger{}, err
	}

	var ledger model.Ledger
	for _, row := range rows {
		switch row.Kind {
		case model.MovementKindCapture:
			ledger.Captured = row.Total
		case model.MovementKindRefund:
			ledger.Refunded = row.Total
		case model.MovementKindRelease:
			ledger.Released = row.Total
		}
	}

	return ledger, nil
}
