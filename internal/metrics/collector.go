package metrics

import (
	"database/sql"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DatabaseCollector samples connection pool stats at a fixed interval.
type DatabaseCollector struct {
	metrics *Metrics
	logger  *zap.Logger
	sqlDB   *sql.DB
	ticker  *time.Ticker
	stopCh  chan struct{}
}

func NewDatabaseCollector(metrics *Metrics, logger *zap.Logger, db *gorm.DB) *DatabaseCollector {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get sql.DB from gorm.DB", zap.Error(err))
		metrics.RecordDBConnectionError()
	}

	return &DatabaseCollector{
		metrics: metrics,
		logger:  logger,
		sqlDB:   sqlDB,
		stopCh:  make(chan struct{}),
	}
}

func (c *DatabaseCollector) Start(interval time.Duration) {
	if c.sqlDB == nil {
		c.logger.Warn("Cannot start database metrics collector: sqlDB is nil")
		return
	}

	c.ticker = time.NewTicker(interval)
	go c.collectLoop()
	c.logger.Info("Database metrics collector started", zap.Duration("interval", interval))
}

func (c *DatabaseCollector) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	close(c.stopCh)
}

func (c *DatabaseCollector) collectLoop() {
	c.collect()

	for {
		select {
		case <-c.ticker.C:
			c.collect()
		case <-c.stopCh:
			return
		}
	}
}

func (c *DatabaseCollector) collect() {
	stats := c.sqlDB.Stats()

	c.metrics.DBConnectionsInUse.Set(float64(stats.InUse))
	c.metrics.DBConnectionsIdle.Set(float64(stats.Idle))
}

// Ping backs the health endpoint.
func (c *DatabaseCollector) Ping() error {
	if c.sqlDB == nil {
		c.metrics.RecordDBConnectionError()
		return sql.ErrConnDone
	}

	if err := c.sqlDB.Ping(); err != nil {
		c.metrics.RecordDBConnectionError()
		return err
	}

	return nil
}
