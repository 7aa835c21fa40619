package repository

import (
	"context"
	"time"

	"github.com/danielsotopino/api-transbank/internal/model"
	"gorm.io/gorm"
)

type HistoryQuery struct {
	Username string
	// From and To are inclusive calendar days.
	From     *time.Time
	To       *time.Time
	Status   *model.TransactionStatus
	// AsOf pins the scan: rows created later are invisible to every page.
	AsOf     time.Time
	Limit    int
	Offset   int
}

type HistoryRepository interface {
	Search(ctx context.Context, query HistoryQuery) ([]model.MallTransaction, int64, error)
}

type History struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &History{db: db}
}

const nonRejectedChild = "SELECT 1 FROM mall_transaction_details d " +
	"WHERE d.transaction_id = mall_transactions.id AND d.status <> ?"

func (r *History) Search(ctx context.Context, query HistoryQuery) ([]model.MallTransaction, int64, error) {
	scope := filter(GetTx(ctx, r.db), query)

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []model.MallTransaction
	if total == 0 || int64(query.Offset) >= total {
		return transactions, total, nil
	}

	if err := page(scope, query).Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// filter scopes the user's transactions to the query. It returns a session
// so the count and the page read share the same conditions.
func filter(db *gorm.DB, query HistoryQuery) *gorm.DB {
	scope := db.Model(&model.MallTransaction{}).
		Where("username = ? AND created_at <= ?", query.Username, query.AsOf)

	if query.From != nil {
		scope = scope.Where("transaction_date >= ?", *query.From)
	}
	if query.To != nil {
		scope = scope.Where("transaction_date < ?", query.To.AddDate(0, 0, 1))
	}
	if query.Status != nil {
		switch *query.Status {
		case model.TransactionStatusAuthorized:
			scope = scope.Where("EXISTS ("+nonRejectedChild+")", model.DetailStatusRejected)
		case model.TransactionStatusRejected:
			scope = scope.Where("NOT EXISTS ("+nonRejectedChild+")", model.DetailStatusRejected)
		}
	}

	return scope.Session(&gorm.Session{})
}

// page orders newest first with id as the tie break, so within one as_of
// snapshot every row has a single position.
func page(scope *gorm.DB, query HistoryQuery) *gorm.DB {
	return scope.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, buy_order") }).
		Order("transaction_date DESC, id DESC").
		Limit(query.Limit).
		Offset(query.Offset)
}
