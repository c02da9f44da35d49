package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultAppName        = "TransferService"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateURL        = "http://data.fixer.io/api"
	defaultHTTPTimeout    = 10 * time.Second
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
)

// Config captures application runtime configuration loaded from environment
// variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LedgerURL      string
	RateURL        string
	RateAccessKey  string
	FeePercent     decimal.Decimal
	HTTPTimeout    time.Duration
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
}

// Load reads configuration values from the environment and populates a Config
// instance. A missing ledger URL, rate credential or fee percentage is a fatal
// configuration error, never a per-request failure.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LedgerURL:      os.Getenv("LEDGER_URL"),
		RateURL:        getEnv("RATE_URL", defaultRateURL),
		RateAccessKey:  os.Getenv("RATE_ACCESS_KEY"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		HTTPTimeout:    defaultHTTPTimeout,
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
	}

	if cfg.LedgerURL == "" {
		return Config{}, fmt.Errorf("LEDGER_URL must be set")
	}
	if cfg.RateAccessKey == "" {
		return Config{}, fmt.Errorf("RATE_ACCESS_KEY must be set")
	}

	feeRaw := os.Getenv("FEE_PERCENT")
	if feeRaw == "" {
		return Config{}, fmt.Errorf("FEE_PERCENT must be set")
	}
	fee, err := decimal.NewFromString(feeRaw)
	if err != nil {
		return Config{}, fmt.Errorf("invalid FEE_PERCENT: %w", err)
	}
	if fee.Cmp(decimal.Zero) <= 0 {
		return Config{}, fmt.Errorf("FEE_PERCENT must be a positive number")
	}
	cfg.FeePercent = fee

	var parseErr error
	cfg.HTTPTimeout, parseErr = durationEnv("HTTP_TIMEOUT", cfg.HTTPTimeout)
	if parseErr != nil {
		return Config{}, parseErr
	}
	cfg.ShutdownPeriod, parseErr = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod)
	if parseErr != nil {
		return Config{}, parseErr
	}
	cfg.IdempotencyTTL, parseErr = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL)
	if parseErr != nil {
		return Config{}, parseErr
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
