package service_test

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/danielsotopino/api-transbank/pkg/vault"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func testConfig() *config.Config {
	return &config.Config{
		Deadlines: config.Deadlines{
			Start:     30 * time.Second,
			Finish:    60 * time.Second,
			Delete:    30 * time.Second,
			Authorize: 30 * time.Second,
			Capture:   45 * time.Second,
			Refund:    45 * time.Second,
			Status:    30 * time.Second,
		},
		Limits: config.Limits{
			MaxAmount:           99_999_999,
			MinInstallments:     1,
			MaxInstallments:     48,
			MaxDetails:          10,
			HistoryDefaultLimit: 50,
			HistoryMaxLimit:     200,
			RefundWindow:        90 * 24 * time.Hour,
			InscriptionTTL:      60 * time.Minute,
		},
	}
}

func testVault() vault.Vault {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", vault.KeySize)))
	return vault.NewVault(vault.Config{Key: key})
}

func fingerprint(t *testing.T, value string) string {
	t.Helper()

	hash, err := testVault().Fingerprint(value)
	require.NoError(t, err)
	return hash
}

func int64Ptr(i int64) *int64 { return &i }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()

	require.Error(t, err)

	var serviceErr service.Error
	require.True(t, errors.As(err, &serviceErr), "expected service.Error, got %T", err)
	require.Equal(t, code, serviceErr.Code)
}
