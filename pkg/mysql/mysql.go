package mysql

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type Config struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	LogLevel        string        `mapstructure:"log_level"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func NewConnection(ctx context.Context, cfg Config, logger *zap.Logger) (db *gorm.DB, err error) {
	gormLog := gormLogger.New(&zapWriter{logger: logger},
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		})

	db, err = gorm.Open(mysql.Open(DSN(cfg)), &gorm.Config{
		Logger:  gormLog,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		logger.Error("Failed to connect to database",
			zap.Error(err),
			zap.String("host", cfg.Host),
			zap.String("database", cfg.Name),
		)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get underlying DB", zap.Error(err))
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 10))
	sqlDB.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 50))
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Database ping failed", zap.Error(err))
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Successfully connected to MySQL database",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
	)

	return db.WithContext(ctx), nil
}

// DSN is shared with the migration runner, which needs multiStatements.
func DSN(cfg Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

func logLevel(level string) gormLogger.LogLevel {
	switch level {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type zapWriter struct {
	logger *zap.Logger
}

func (z *zapWriter) Printf(format string, args ...interface{}) {
	z.logger.Info(fmt.Sprintf(format, args...))
}
