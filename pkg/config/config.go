package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration for tvbatch
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
//
// Per-run settings (strategy, thresholds, export destination) are not here;
// they live in a runconfig.Provider so they can be changed between runs.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional, enables run history persistence)
	Database DatabaseConfig

	// Redis (optional, run configuration store)
	Redis RedisConfig

	// Browser surface
	Surface SurfaceConfig

	// Run configuration store
	RunConfigStore string // file, redis
	RunConfigFile  string
	RunConfigKey   string

	// Scheduled batch (cron expression with seconds, empty = disabled)
	BatchSchedule string

	// Export
	ExportTimeout   time.Duration
	ExportRateLimit float64 // requests per second

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// SurfaceConfig points at the browser instance driven over the DevTools protocol
type SurfaceConfig struct {
	DebugURL    string        // e.g. http://127.0.0.1:9222
	PageMatch   string        // substring of the target page URL
	CallTimeout time.Duration // per protocol call
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Surface: SurfaceConfig{
			DebugURL:    getEnv("CDP_URL", "http://127.0.0.1:9222"),
			PageMatch:   getEnv("CDP_PAGE_MATCH", "tradingview.com"),
			CallTimeout: getEnvAsDuration("CDP_CALL_TIMEOUT", "15s"),
		},

		RunConfigStore: getEnv("RUN_CONFIG_STORE", "file"),
		RunConfigFile:  getEnv("RUN_CONFIG_FILE", "tvbatch.yaml"),
		RunConfigKey:   getEnv("RUN_CONFIG_KEY", "tvbatch:settings"),

		BatchSchedule: getEnv("BATCH_SCHEDULE", ""),

		ExportTimeout:   getEnvAsDuration("EXPORT_TIMEOUT", "30s"),
		ExportRateLimit: getEnvAsFloat("EXPORT_RATE_LIMIT", 2),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.RunConfigStore {
	case "file":
		if c.RunConfigFile == "" {
			return fmt.Errorf("RUN_CONFIG_FILE is required when RUN_CONFIG_STORE=file")
		}
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("RUN_CONFIG_STORE=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("RUN_CONFIG_STORE must be one of: file, redis")
	}

	if c.Surface.DebugURL == "" {
		return fmt.Errorf("CDP_URL is required")
	}

	return nil
}

// HistoryEnabled reports whether run history should be persisted to Postgres
func (c *Config) HistoryEnabled() bool {
	return c.Database.URL != ""
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
