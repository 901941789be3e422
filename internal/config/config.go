package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"bitcoin-standard-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	busyTimeout, err := getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	lockWindow, err := getEnvDuration("LOCK_WINDOW", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := getEnvDuration("ORACLE_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	freshFor, err := getEnvDuration("PRICE_FRESH_FOR", time.Minute)
	if err != nil {
		return nil, err
	}

	maxStale, err := getEnvDuration("PRICE_MAX_STALE", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "portfolio.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			BusyTimeout:     busyTimeout,
		},
		Settlement: models.SettlementConfig{
			LockWindow:      lockWindow,
			MinBtcTradeSats: getEnvInt64("MIN_BTC_TRADE_SATS", 100_000),
			SeedSats:        getEnvInt64("SEED_SATS", 100_000_000),
		},
		Oracle: models.OracleConfig{
			CoingeckoBaseURL: getEnvString("COINGECKO_BASE_URL", "https://api.coingecko.com"),
			QuoteBaseURL:     getEnvString("QUOTE_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestTimeout:   requestTimeout,
			FreshFor:         freshFor,
			MaxStale:         maxStale,
			AssetsFile:       getEnvString("ASSETS_FILE", "assets.yaml"),
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER_NAME", "bitcoin-standard"),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
