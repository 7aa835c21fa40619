package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yml"), []byte(`
api:
  port: ":9090"
database:
  host: "db"
  name: "transbank"
gateway:
  environment: "integration"
  commerce_code: "597055555541"
deadlines:
  capture: 10s
limits:
  max_installments: 12
`), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	t.Setenv("ONECLICK_VAULT_KEY", "from-env")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.API.Port)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.True(t, cfg.Database.Migrate)
	assert.Equal(t, "597055555541", cfg.Gateway.CommerceCode)
	assert.Equal(t, "from-env", cfg.Vault.Key)

	assert.Equal(t, 10*time.Second, cfg.Deadlines.Capture)
	assert.Equal(t, 60*time.Second, cfg.Deadlines.Finish)
	assert.Equal(t, 30*time.Second, cfg.Deadlines.Authorize)
	assert.Equal(t, 45*time.Second, cfg.Deadlines.Refund)

	assert.Equal(t, 12, cfg.Limits.MaxInstallments)
	assert.Equal(t, 1, cfg.Limits.MinInstallments)
	assert.Equal(t, 200, cfg.Limits.HistoryMaxLimit)
	assert.Equal(t, 50, cfg.Limits.HistoryDefaultLimit)
	assert.Equal(t, 90*24*time.Hour, cfg.Limits.RefundWindow)
	assert.Equal(t, time.Hour, cfg.Limits.InscriptionTTL)

	assert.Equal(t, 15*time.Second, cfg.Metrics.CollectInterval)
	assert.Equal(t, 1, cfg.RabbitMQ.Prefetch)
	assert.Equal(t, 10*time.Millisecond, cfg.Kafka.BatchTimeout)
	assert.Equal(t, 5*time.Second, cfg.Kafka.WriteTimeout)
}
