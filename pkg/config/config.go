package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment-driven configuration. Strategy
// parameters live in the YAML strategy file, not here.
type Config struct {
	Env  string // development, staging, production
	Port string

	// Paths
	DataDir      string // per-symbol OHLCV CSV files
	OutputDir    string // date-partitioned pipeline outputs
	UniverseFile string // JSON symbol universe
	StrategyFile string // YAML strategy parameters

	// Dhan API
	Dhan DhanConfig

	// Optional Postgres persistence
	Database DatabaseConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DhanConfig holds Dhan API credentials and limits.
type DhanConfig struct {
	AccessToken string
	ClientID    string
	BaseURL     string
	// Requests per second against the charts API. Dhan allows 10/s;
	// the default stays well under that.
	RateLimit float64
}

// DatabaseConfig holds PostgreSQL configuration. Persistence is
// disabled when URL is empty.
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Load reads configuration from environment variables, consulting a
// .env file when present. Invalid combinations fail here, before any
// pipeline work starts.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8090"),

		DataDir:      getEnv("DATA_DIR", "./market_data"),
		OutputDir:    getEnv("OUTPUT_DIR", "./outputs"),
		UniverseFile: getEnv("UNIVERSE_FILE", "./config/stock_universe.json"),
		StrategyFile: getEnv("STRATEGY_FILE", "./config/strategy/nse_swing_v1.yaml"),

		Dhan: DhanConfig{
			AccessToken: getEnv("DHAN_ACCESS_TOKEN", ""),
			ClientID:    getEnv("DHAN_CLIENT_ID", ""),
			BaseURL:     getEnv("DHAN_BASE_URL", "https://api.dhan.co"),
			RateLimit:   getEnvAsFloat("DHAN_RATE_LIMIT", 2.0),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.Dhan.RateLimit <= 0 {
		return fmt.Errorf("DHAN_RATE_LIMIT must be positive")
	}
	return nil
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
