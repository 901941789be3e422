package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"bitcoin-standard-go/internal/models"
	"bitcoin-standard-go/internal/store"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.Ledger.
var _ store.Ledger = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

// dsn builds the SQLite connection string. WAL keeps readers unblocked by
// the single writer; _txlock=immediate acquires the write lock at BEGIN so
// two settlements for the same user serialize instead of deadlocking.
func dsn(cfg models.DatabaseConfig) string {
	busyMillis := int64(5000)
	if cfg.BusyTimeout > 0 {
		busyMillis = cfg.BusyTimeout.Milliseconds()
	}
	return cfg.Path + "?" + url.Values{
		"_journal_mode": {"WAL"},
		"_synchronous":  {"NORMAL"},
		"_busy_timeout": {fmt.Sprintf("%d", busyMillis)},
		"_txlock":       {"immediate"},
		"_foreign_keys": {"1"},
	}.Encode()
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	-- Users
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Holdings (Current State - Hot Data)
	CREATE TABLE IF NOT EXISTS holdings (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		asset TEXT NOT NULL,
		amount INTEGER NOT NULL DEFAULT 0,
		last_trade_id TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, asset)
	);

	-- Purchase Lots (Immutable - one row per non-BTC acquisition)
	CREATE TABLE IF NOT EXISTS lots (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		asset TEXT NOT NULL,
		amount INTEGER NOT NULL,
		btc_spent INTEGER NOT NULL,
		purchase_price_usd TEXT NOT NULL,
		btc_price_usd_at_purchase TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		locked_until INTEGER NOT NULL
	);

	-- Trades (Audit Trail - Append Only)
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		from_asset TEXT NOT NULL,
		to_asset TEXT NOT NULL,
		from_amount INTEGER NOT NULL,
		to_amount INTEGER NOT NULL,
		btc_price_usd TEXT NOT NULL,
		asset_price_usd TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	-- Assets (last known USD price per symbol, written by the oracle)
	CREATE TABLE IF NOT EXISTS assets (
		symbol TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		price_usd TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holdings_user_id ON holdings(user_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holdings_user_asset ON holdings(user_id, asset);

	CREATE INDEX IF NOT EXISTS idx_lots_user_asset_locked ON lots(user_id, asset, locked_until);
	CREATE INDEX IF NOT EXISTS idx_lots_user_asset_created ON lots(user_id, asset, created_at);

	CREATE INDEX IF NOT EXISTS idx_trades_user_created ON trades(user_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// WithHoldingLock runs fn inside a single immediate-mode write transaction.
// SQLite admits one writer at a time, so concurrent settlements serialize
// here; the version check in ApplyHoldingDelta guards the rest.
func (s *Service) WithHoldingLock(ctx context.Context, userId, asset string, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if isBusyErr(err) {
			return fmt.Errorf("begin settlement transaction: %w", store.ErrConcurrentModification)
		}
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to roll back transaction", zap.Error(err))
		}
	}()

	if err := fn(&ledgerTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if isBusyErr(err) {
			return fmt.Errorf("commit settlement transaction: %w", store.ErrConcurrentModification)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isBusyErr reports whether err is SQLite's lock-contention signal, which
// callers may safely retry.
func isBusyErr(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

// ledgerTx exposes the store.Tx operations over one *sql.Tx.
type ledgerTx struct {
	tx *sql.Tx
}

var _ store.Tx = (*ledgerTx)(nil)

// querier abstracts *sql.DB and *sql.Tx so the row-level helpers below can
// run both inside and outside a settlement transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
