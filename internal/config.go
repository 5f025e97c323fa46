package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/expertauto/expertise/internal/service"
	"github.com/expertauto/expertise/internal/storage"
	"github.com/expertauto/expertise/internal/valuation"
	"github.com/expertauto/expertise/internal/worker"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// HS256 secret shared with the identity provider that issues bearer tokens
	JWTSecret string

	// Valuation
	DefaultHourlyRate    decimal.Decimal // Labor rate of zones submitted without one
	DepreciationSchedule valuation.Schedule
	DepreciationBase     valuation.Base

	// Deadline of a single write transaction
	DBTxTimeout time.Duration

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2Endpoint        string // Optional S3-compatible endpoint (MinIO)
	R2PublicURL       string // Optional custom domain URL
	R2Region          string

	// Worker Configuration
	WorkerEnabled      bool
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	WorkerJobTimeout   time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string

	// Report creations allowed per user per minute; 0 disables the limit
	CreateRateLimit int
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		DBTxTimeout: getEnvDuration("DB_TX_TIMEOUT", 10*time.Second),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", storage.ProviderLocal),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2Endpoint:        getEnv("R2_ENDPOINT", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		R2Region:          getEnv("R2_REGION", "auto"),

		// Worker defaults
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerJobTimeout:   getEnvDuration("WORKER_JOB_TIMEOUT", 2*time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		CreateRateLimit: getEnvInt("CREATE_RATE_LIMIT", 30),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" && cfg.Env != "development" {
		return nil, fmt.Errorf("JWT_SECRET is required outside development")
	}

	// Valuation
	rate, err := decimal.NewFromString(getEnv("DEFAULT_HOURLY_RATE", "4000"))
	if err != nil || rate.IsNegative() {
		return nil, fmt.Errorf("DEFAULT_HOURLY_RATE must be a non-negative number, got: %s", os.Getenv("DEFAULT_HOURLY_RATE"))
	}
	cfg.DefaultHourlyRate = rate

	if cfg.DepreciationSchedule, err = valuation.ScheduleByName(getEnv("DEPRECIATION_SCHEDULE", "standard")); err != nil {
		return nil, fmt.Errorf("DEPRECIATION_SCHEDULE: %w", err)
	}
	if cfg.DepreciationBase, err = valuation.ParseBase(getEnv("DEPRECIATION_BASE", "parts")); err != nil {
		return nil, fmt.Errorf("DEPRECIATION_BASE: %w", err)
	}

	// Validate storage configuration
	switch cfg.StorageProvider {
	case storage.ProviderR2:
		if cfg.R2AccountID == "" && cfg.R2Endpoint == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID or R2_ENDPOINT is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	case storage.ProviderLocal:
	default:
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	if err := cfg.WorkerConfig().Validate(); err != nil {
		return nil, fmt.Errorf("worker configuration: %w", err)
	}

	return cfg, nil
}

// ReportServiceConfig returns the report service settings.
func (c *Config) ReportServiceConfig() service.ReportServiceConfig {
	rc := service.DefaultReportServiceConfig()
	rc.Engine = valuation.Engine{Schedule: c.DepreciationSchedule, Base: c.DepreciationBase}
	rc.DefaultHourlyRate = c.DefaultHourlyRate
	rc.TxTimeout = c.DBTxTimeout
	return rc
}

// StorageConfig returns the document storage settings.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Provider: c.StorageProvider,
		Local: storage.LocalConfig{
			BasePath: c.LocalStoragePath,
			BaseURL:  c.LocalStorageURL,
		},
		R2: storage.R2Config{
			AccountID:       c.R2AccountID,
			AccessKeyID:     c.R2AccessKeyID,
			SecretAccessKey: c.R2SecretAccessKey,
			BucketName:      c.R2BucketName,
			Endpoint:        c.R2Endpoint,
			PublicURL:       c.R2PublicURL,
			Region:          c.R2Region,
		},
	}
}

// WorkerConfig returns the job worker settings.
func (c *Config) WorkerConfig() worker.Config {
	wc := worker.DefaultConfig()
	wc.Concurrency = c.WorkerConcurrency
	wc.PollInterval = c.WorkerPollInterval
	wc.JobTimeout = c.WorkerJobTimeout
	return wc
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
