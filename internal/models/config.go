package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Settlement SettlementConfig
	Oracle     OracleConfig
	Formance   FormanceConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// SettlementConfig holds the simulation-tunable trading constants.
type SettlementConfig struct {
	// LockWindow is how long a freshly acquired non-BTC lot stays locked.
	LockWindow time.Duration
	// MinBtcTradeSats is the minimum trade size, enforced only when
	// spending BTC.
	MinBtcTradeSats int64
	// SeedSats is the BTC balance granted to every new user.
	SeedSats int64
}

// OracleConfig holds price-oracle settings: upstream endpoints, request
// bounds and the staleness policy of the last-known-good cache.
type OracleConfig struct {
	CoingeckoBaseURL string
	QuoteBaseURL     string
	RequestTimeout   time.Duration
	// FreshFor: cached quotes younger than this are served without a
	// round-trip to the upstream.
	FreshFor time.Duration
	// MaxStale: hard ceiling on how old a fallback quote may be before the
	// oracle fails closed.
	MaxStale   time.Duration
	AssetsFile string
}

// FormanceConfig holds the optional Formance Stack audit-mirror settings.
// The mirror is disabled when StackURL is empty.
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}
