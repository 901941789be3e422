package settlement

import (
	"errors"
	"fmt"
)

// Sentinel errors for trade validation and concurrency. Each rejection that
// depends on state carries the concrete numbers the caller needs to correct
// the request, via the typed errors below.
var (
	// ErrInvalidPair: from and to asset are identical.
	ErrInvalidPair = errors.New("from and to asset must differ")

	// ErrUnsupportedPair: neither or both sides are BTC. Every non-BTC
	// asset only trades against BTC.
	ErrUnsupportedPair = errors.New("exactly one side of a trade must be BTC")

	// ErrNonPositiveAmount: amount must be a positive number of scaled units.
	ErrNonPositiveAmount = errors.New("trade amount must be positive")

	// ErrPersistenceConflict: a concurrent settlement touched the same
	// holding. Nothing was committed; the whole trade is safe to retry.
	ErrPersistenceConflict = errors.New("settlement conflicted with a concurrent trade")
)

// BelowMinimumError rejects BTC-side trades under the minimum trade size.
type BelowMinimumError struct {
	RequestedSats int64
	MinimumSats   int64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("trade below minimum: requested %d sats, minimum %d sats",
		e.RequestedSats, e.MinimumSats)
}

// InsufficientBalanceError reports the true available balance alongside the
// rejected request.
type InsufficientBalanceError struct {
	Asset     string
	Requested int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: requested %d, available %d",
		e.Asset, e.Requested, e.Available)
}

// AssetLockedError rejects a sale that would dip into still-locked lots.
type AssetLockedError struct {
	Asset     string
	Requested int64
	Locked    int64
	Available int64
}

func (e *AssetLockedError) Error() string {
	return fmt.Sprintf("%s is locked: requested %d, locked %d, available %d",
		e.Asset, e.Requested, e.Locked, e.Available)
}

// PriceUnavailableError wraps the oracle failure that made settlement fail
// closed.
type PriceUnavailableError struct {
	Symbol string
	Err    error
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("no price available for %s: %v", e.Symbol, e.Err)
}

func (e *PriceUnavailableError) Unwrap() error { return e.Err }
