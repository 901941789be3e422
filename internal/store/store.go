package store

import (
	"context"
	"errors"

	"bitcoin-standard-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrHoldingNotFound        = errors.New("holding not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrNegativeHolding        = errors.New("holding amount would go negative")
)

// Tx is the set of ledger operations available inside a settlement unit of
// work. Everything called through a Tx either commits together or not at
// all.
type Tx interface {
	// GetHolding returns the holding row for (user, asset), or
	// ErrHoldingNotFound if the user never touched the asset.
	GetHolding(ctx context.Context, userId, asset string) (*models.Holding, error)

	// ApplyHoldingDelta adds delta (which may be negative) to the holding,
	// creating the row lazily on first acquisition. Returns
	// ErrNegativeHolding if the result would be negative and
	// ErrConcurrentModification if the optimistic version check fails.
	ApplyHoldingDelta(ctx context.Context, userId, asset string, delta int64, tradeId string) (*models.Holding, error)

	// ListActiveLots returns the user's still-locked lots for one asset.
	ListActiveLots(ctx context.Context, userId, asset string) ([]models.Lot, error)

	InsertLot(ctx context.Context, lot *models.Lot) error
	InsertTrade(ctx context.Context, trade *models.Trade) error
}

// Ledger is the persistence surface the settlement engine depends on.
type Ledger interface {
	// WithHoldingLock runs fn inside a single write transaction that holds
	// exclusive access to the user's holdings for its duration. If fn
	// returns an error nothing is persisted.
	WithHoldingLock(ctx context.Context, userId, asset string, fn func(tx Tx) error) error

	GetHolding(ctx context.Context, userId, asset string) (*models.Holding, error)
	GetUserHoldings(ctx context.Context, userId string) ([]models.Holding, error)
	ListActiveLots(ctx context.Context, userId, asset string) ([]models.Lot, error)
	ListLots(ctx context.Context, userId, asset string) ([]models.Lot, error)
	ListTrades(ctx context.Context, userId string) ([]models.Trade, error)
	ListTradesAscending(ctx context.Context, userId string) ([]models.Trade, error)

	// ReplaceHoldings atomically swaps all of a user's holdings for the
	// given amounts. Used only by reconciliation.
	ReplaceHoldings(ctx context.Context, userId string, amounts map[string]int64) error
}
