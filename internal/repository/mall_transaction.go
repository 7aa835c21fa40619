package repository

import (
	"context"
	"errors"

	"github.com/danielsotopino/api-transbank/internal/model"
	"gorm.io/gorm"
)

type DetailKey struct {
	CommerceCode string
	BuyOrder     string
}

type DetailState struct {
	Status  model.DetailStatus
	Balance int64
}

type MallTransactionRepository interface {
	Create(ctx context.Context, transaction *model.MallTransaction) error
	ExistsParentBuyOrder(ctx context.Context, parentBuyOrder string) (bool, error)
	FindExistingDetails(ctx context.Context, keys []DetailKey) ([]DetailKey, error)
	GetByParentBuyOrder(ctx context.Context, parentBuyOrder string) (*model.MallTransaction, error)
	GetDetail(ctx context.Context, commerceCode, buyOrder string) (*model.MallTransactionDetail, error)
	UpdateDetailState(ctx context.Context, detailID string, from, to DetailState) error
}

type MallTransaction struct {
	db *gorm.DB
}

func NewMallTransactionRepository(db *gorm.DB) MallTransactionRepository {
	return &MallTransaction{db: db}
}

// Create inserts the parent and its details in one statement batch. Callers
// wrap it in WithTx so a failing child rolls back the parent.
func (r *MallTransaction) Create(ctx context.Context, transaction *model.MallTransaction) error {
	err := GetTx(ctx, r.db).Create(transaction).Error
	if err == nil {
		return nil
	}

	if isDuplicate(err) {
		return ErrTransactionDuplicate
	}

	return err
}

func (r *MallTransaction) ExistsParentBuyOrder(ctx context.Context, parentBuyOrder string) (bool, error) {
	var count int64

	err := GetTx(ctx, r.db).Model(&model.MallTransaction{}).
		Where("parent_buy_order = ?", parentBuyOrder).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *MallTransaction) FindExistingDetails(ctx context.Context, keys []DetailKey) ([]DetailKey, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	pairs := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, []interface{}{k.CommerceCode, k.BuyOrder})
	}

	var details []model.MallTransactionDetail
	err := GetTx(ctx, r.db).
		Select("commerce_code", "buy_order").
		Where("(commerce_code, buy_order) IN ?", pairs).
		Find(&details).Error
	if err != nil {
		return nil, err
	}

	existing := make([]DetailKey, 0, len(details))
	for _, d := range details {
		existing = append(existing, DetailKey{CommerceCode: d.CommerceCode, BuyOrder: d.BuyOrder})
	}

	return existing, nil
}

func (r *MallTransaction) GetByParentBuyOrder(ctx context.Context, parentBuyOrder string) (*model.MallTransaction, error) {
	var transaction model.MallTransaction

	err := GetTx(ctx, r.db).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, buy_order") }).
		Where("parent_buy_order = ?", parentBuyOrder).
		First(&transaction).Error
	if err == nil {
		return &transaction, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}

	return nil, err
}

// GetDetail loads the child with its parent, which carries the transaction
// date and parent buy order.
func (r *MallTransaction) GetDetail(ctx context.Context, commerceCode, buyOrder string) (*model.MallTransactionDetail, error) {
	var detail model.MallTransactionDetail

	err := GetTx(ctx, r.db).
		Preload("Transaction").
		Where("commerce_code = ? AND buy_order = ?", commerceCode, buyOrder).
		First(&detail).Error
	if err == nil {
		return &detail, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}

	return nil, err
}

// UpdateDetailState is a compare and set on (status, balance).
func (r *MallTransaction) UpdateDetailState(ctx context.Context, detailID string, from, to DetailState) error {
	result := GetTx(ctx, r.db).Model(&model.MallTransactionDetail{}).
		Where("id = ? AND status = ? AND balance = ?", detailID, from.Status, from.Balance).
		Updates(map[string]interface{}{
			"status":  to.Status,
			"balance": to.Balance,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}
