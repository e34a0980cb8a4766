package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Order store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Pricing  PricingConfig
	Basket   BasketConfig
	Store    StoreConfig
	Persist  PersistConfig
	Catalog  CatalogConfig
	LogLevel string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

type AuthConfig struct {
	APIKeys []string // Valid API keys for vendor-side endpoints
}

type PricingConfig struct {
	TaxRate     decimal.Decimal
	DeliveryFee decimal.Decimal
}

type BasketConfig struct {
	CacheSize int // Maximum number of live baskets
}

type StoreConfig struct {
	Backend        string
	RedisURL       string
	RedisNamespace string
	DatabaseURL    string
}

type PersistConfig struct {
	MaxTries        int
	InitialInterval time.Duration
}

type CatalogConfig struct {
	Sources []string // Files or URLs of vendor catalog documents; empty uses the built-in catalog
}

// Load reads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
		},
		Auth: AuthConfig{
			APIKeys: getEnvAsSlice("API_KEYS", []string{"apitest"}),
		},
		Pricing: PricingConfig{
			TaxRate:     getEnvAsDecimal("TAX_RATE", decimal.RequireFromString("0.05")),
			DeliveryFee: getEnvAsDecimal("DELIVERY_FEE", decimal.RequireFromString("5.00")),
		},
		Basket: BasketConfig{
			CacheSize: getEnvAsInt("BASKET_CACHE_SIZE", 10000),
		},
		Store: StoreConfig{
			Backend:        strings.ToLower(getEnv("ORDER_STORE", StoreMemory)),
			RedisURL:       getEnv("REDIS_URL", ""),
			RedisNamespace: getEnv("REDIS_NAMESPACE", "campusqueue"),
			DatabaseURL:    getEnv("DATABASE_URL", ""),
		},
		Persist: PersistConfig{
			MaxTries:        getEnvAsInt("PERSIST_MAX_TRIES", 3),
			InitialInterval: time.Duration(getEnvAsInt("PERSIST_INITIAL_INTERVAL_MS", 100)) * time.Millisecond,
		},
		Catalog: CatalogConfig{
			Sources: getEnvAsSlice("CATALOG_SOURCES", nil),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key must be configured")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.Pricing.TaxRate.IsNegative() || c.Pricing.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("TAX_RATE must be in [0, 1), got %s", c.Pricing.TaxRate)
	}
	if c.Pricing.DeliveryFee.IsNegative() {
		return fmt.Errorf("DELIVERY_FEE must not be negative, got %s", c.Pricing.DeliveryFee)
	}

	if c.Basket.CacheSize <= 0 {
		return fmt.Errorf("BASKET_CACHE_SIZE must be positive")
	}
	if c.Persist.MaxTries <= 0 {
		return fmt.Errorf("PERSIST_MAX_TRIES must be positive")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when ORDER_STORE=redis")
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when ORDER_STORE=postgres")
		}
	default:
		return fmt.Errorf("invalid ORDER_STORE: %s (must be memory, redis, or postgres)", c.Store.Backend)
	}

	return nil
}

// Helper functions for reading environment variables

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

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
