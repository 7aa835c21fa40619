package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

type txKey struct{}

// TxManager runs fn in one database transaction. A call made while a
// transaction is already bound to ctx joins it through a savepoint.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TxManager {
	return &TransactionManager{db: db}
}

func (tm *TransactionManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer("github.com/danielsotopino/api-transbank/internal/repository").Start(ctx, "db.transaction")
	defer span.End()

	err := GetTx(ctx, tm.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
	}

	return err
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

// GetTx returns the transaction bound to ctx, or db scoped to ctx.
func GetTx(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
