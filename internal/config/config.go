// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults for the optimizer. These are process-wide defaults only; the
// optimization core receives them explicitly via optimization.Config so it
// never reads ambient state.
const (
	DefaultRiskFreeRate    = 0.0
	DefaultTradingDays     = 252
	DefaultRiskAversion    = 1.0
	DefaultWeightClip      = 1e-4
	DefaultLookbackPeriod  = "5y"
	DefaultRefreshSchedule = "0 30 6 * * *" // 06:30 daily, with seconds field
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the price cache database
	Port            int
	LogLevel        string
	DevMode         bool
	LookbackPeriod  string  // Yahoo period string for historical fetches (e.g. "5y")
	RiskFreeRate    float64 // Annualized risk-free rate used in Sharpe calculations
	TradingDays     int     // Annualization factor (trading days per year)
	RiskAversion    float64 // Lambda for the quadratic-utility objective
	RefreshEnabled  bool    // Enable the daily price-cache refresh job
	RefreshSchedule string  // Cron spec for the refresh job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FRONTIER_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("FRONTIER_PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LookbackPeriod:  getEnv("FRONTIER_LOOKBACK_PERIOD", DefaultLookbackPeriod),
		RiskFreeRate:    getEnvAsFloat("FRONTIER_RISK_FREE_RATE", DefaultRiskFreeRate),
		TradingDays:     getEnvAsInt("FRONTIER_TRADING_DAYS", DefaultTradingDays),
		RiskAversion:    getEnvAsFloat("FRONTIER_RISK_AVERSION", DefaultRiskAversion),
		RefreshEnabled:  getEnvAsBool("FRONTIER_REFRESH_ENABLED", false),
		RefreshSchedule: getEnv("FRONTIER_REFRESH_SCHEDULE", DefaultRefreshSchedule),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.TradingDays <= 0 {
		return fmt.Errorf("trading days must be positive, got %d", c.TradingDays)
	}
	if c.RiskAversion <= 0 {
		return fmt.Errorf("risk aversion must be positive, got %f", c.RiskAversion)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
