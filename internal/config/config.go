package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Match store drivers accepted in MATCH_DB_DRIVER.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Match history store
	MatchDBDriver string
	DatabaseURL   string

	// Optional backends. Empty disables the component.
	ClickHouseURL string
	RedisURL      string
	AMQPURL       string
	FeedbackQueue string

	// Audit worker pool
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Feature extraction
	FetchTimeout     time.Duration
	FeatureCacheTTL  time.Duration
	RecentMatchLimit int
	H2HMatchLimit    int

	// Engine
	BatchConcurrency      int
	MaxBatchSize          int
	ModelVersion          string
	GBMModelPath          string
	DisagreementThreshold float64
	DisagreementPenalty   float64
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing or inconsistent.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		MatchDBDriver: strings.ToLower(getEnv("MATCH_DB_DRIVER", DriverPgx)),

		ClickHouseURL: getEnv("CLICKHOUSE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		AMQPURL:       getEnv("AMQP_URL", ""),
		FeedbackQueue: getEnv("FEEDBACK_QUEUE", "prediction_feedback"),

		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		QueueSize:     getEnvInt("QUEUE_SIZE", 10000),
		BatchSize:     getEnvInt("BATCH_SIZE", 500),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 1*time.Second),

		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 3*time.Second),
		FeatureCacheTTL:  getEnvDuration("FEATURE_CACHE_TTL", 10*time.Minute),
		RecentMatchLimit: getEnvInt("RECENT_MATCH_LIMIT", 10),
		H2HMatchLimit:    getEnvInt("H2H_MATCH_LIMIT", 10),

		BatchConcurrency:      getEnvInt("BATCH_CONCURRENCY", 8),
		MaxBatchSize:          getEnvInt("MAX_BATCH_SIZE", 100),
		ModelVersion:          getEnv("MODEL_VERSION", "ensemble-v1"),
		GBMModelPath:          getEnv("GBM_MODEL_PATH", ""),
		DisagreementThreshold: getEnvFloat("DISAGREEMENT_THRESHOLD", 0.25),
		DisagreementPenalty:   getEnvFloat("DISAGREEMENT_PENALTY", 0.8),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	switch cfg.MatchDBDriver {
	case DriverPgx, DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported MATCH_DB_DRIVER: %s", cfg.MatchDBDriver)
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.DatabaseURL, err = getEnvRequired("DATABASE_URL"); err != nil {
		return nil, err
	}

	if cfg.DisagreementThreshold <= 0 || cfg.DisagreementThreshold > 1 {
		return nil, fmt.Errorf("DISAGREEMENT_THRESHOLD must be in (0, 1], got %v", cfg.DisagreementThreshold)
	}
	if cfg.DisagreementPenalty <= 0 || cfg.DisagreementPenalty > 1 {
		return nil, fmt.Errorf("DISAGREEMENT_PENALTY must be in (0, 1], got %v", cfg.DisagreementPenalty)
	}

	return cfg, nil
}

// IsDevelopment reports whether the development logger should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
