package database

import (
	"context"

	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/danielsotopino/api-transbank/pkg/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewConnection(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	return mysql.NewConnection(context.Background(), cfg.Database.Config, logger)
}
