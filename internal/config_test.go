package internal

import (
	"testing"
	"time"

	"github.com/expertauto/expertise/internal/storage"
	"github.com/expertauto/expertise/internal/valuation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setBaseEnv clears every variable NewConfig reads and sets the minimum
// for a development start.
func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "PORT", "LOG_LEVEL", "JWT_SECRET", "DEFAULT_HOURLY_RATE",
		"DEPRECIATION_SCHEDULE", "DEPRECIATION_BASE", "DB_TX_TIMEOUT",
		"STORAGE_PROVIDER", "LOCAL_STORAGE_PATH", "LOCAL_STORAGE_URL",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY",
		"R2_BUCKET_NAME", "R2_ENDPOINT", "R2_PUBLIC_URL", "R2_REGION",
		"WORKER_ENABLED", "WORKER_CONCURRENCY", "WORKER_POLL_INTERVAL",
		"WORKER_JOB_TIMEOUT", "METRICS_USERNAME", "METRICS_PASSWORD",
		"CREATE_RATE_LIMIT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/expertise_test")
}

func TestNewConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.DefaultHourlyRate.Equal(decimal.NewFromInt(4000)))
	assert.Equal(t, valuation.StandardSchedule, cfg.DepreciationSchedule)
	assert.Equal(t, valuation.BaseParts, cfg.DepreciationBase)
	assert.Equal(t, 10*time.Second, cfg.DBTxTimeout)
	assert.Equal(t, storage.ProviderLocal, cfg.StorageProvider)
	assert.True(t, cfg.WorkerEnabled)
	assert.Equal(t, 30, cfg.CreateRateLimit)
}

func TestNewConfig_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_HOURLY_RATE", "5500")
	t.Setenv("DEPRECIATION_SCHEDULE", "coarse")
	t.Setenv("DEPRECIATION_BASE", "subtotal")
	t.Setenv("DB_TX_TIMEOUT", "3s")
	t.Setenv("WORKER_ENABLED", "false")
	t.Setenv("WORKER_CONCURRENCY", "4")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.DefaultHourlyRate.Equal(decimal.NewFromInt(5500)))
	assert.Equal(t, valuation.CoarseSchedule, cfg.DepreciationSchedule)
	assert.Equal(t, valuation.BaseSubtotal, cfg.DepreciationBase)
	assert.False(t, cfg.WorkerEnabled)

	rc := cfg.ReportServiceConfig()
	assert.Equal(t, valuation.BaseSubtotal, rc.Engine.Base)
	assert.Equal(t, 3*time.Second, rc.TxTimeout)
	assert.True(t, rc.DefaultHourlyRate.Equal(decimal.NewFromInt(5500)))

	assert.Equal(t, 4, cfg.WorkerConfig().Concurrency)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"DATABASE_URL": ""},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "jwt secret required in production",
			env:     map[string]string{"ENV": "production"},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "unknown schedule",
			env:     map[string]string{"DEPRECIATION_SCHEDULE": "linear"},
			wantErr: "DEPRECIATION_SCHEDULE",
		},
		{
			name:    "unknown base",
			env:     map[string]string{"DEPRECIATION_BASE": "labor"},
			wantErr: "DEPRECIATION_BASE",
		},
		{
			name:    "negative hourly rate",
			env:     map[string]string{"DEFAULT_HOURLY_RATE": "-1"},
			wantErr: "DEFAULT_HOURLY_RATE",
		},
		{
			name:    "unknown storage provider",
			env:     map[string]string{"STORAGE_PROVIDER": "gcs"},
			wantErr: "STORAGE_PROVIDER",
		},
		{
			name:    "r2 without credentials",
			env:     map[string]string{"STORAGE_PROVIDER": "r2", "R2_ACCOUNT_ID": "acct"},
			wantErr: "R2_ACCESS_KEY_ID",
		},
		{
			name:    "worker concurrency out of range",
			env:     map[string]string{"WORKER_CONCURRENCY": "0"},
			wantErr: "worker configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_StorageConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_PROVIDER", "r2")
	t.Setenv("R2_ENDPOINT", "http://minio:9000")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "statements")

	cfg, err := NewConfig()
	require.NoError(t, err)

	sc := cfg.StorageConfig()
	assert.Equal(t, storage.ProviderR2, sc.Provider)
	assert.Equal(t, "http://minio:9000", sc.R2.Endpoint)
	assert.Equal(t, "statements", sc.R2.BucketName)
	assert.Equal(t, "auto", sc.R2.Region)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("Warning").String())
	assert.Equal(t, "ERROR", parseLevel("error").String())
	assert.Equal(t, "INFO", parseLevel("bogus").String())
}
