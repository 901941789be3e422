package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BitcoinSymbol is the settlement currency every other asset trades against.
const BitcoinSymbol = "BTC"

// SatsPerUnit is the fixed-point scale for all persisted amounts: one whole
// unit of any asset is 1e8 scaled units, mirroring bitcoin's satoshi scale.
const SatsPerUnit = 100_000_000

// User represents a registered player
type User struct {
	Id        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Holding is the running balance for one (user, asset) pair (hot data).
// Amount is a scaled integer ("sats") and must never go negative after a
// committed trade. The version column backs optimistic locking.
type Holding struct {
	Id          string    `db:"id"`
	UserId      string    `db:"user_id"`
	Asset       string    `db:"asset"`
	Amount      int64     `db:"amount"`
	LastTradeId string    `db:"last_trade_id"`
	Version     int64     `db:"version"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Lot records one atomic acquisition of a non-BTC asset. Lots are immutable:
// LockedUntil is fixed at creation and never extended by later purchases.
type Lot struct {
	Id                    string          `db:"id"`
	UserId                string          `db:"user_id"`
	Asset                 string          `db:"asset"`
	Amount                int64           `db:"amount"`
	BtcSpent              int64           `db:"btc_spent"`
	PurchasePriceUsd      decimal.Decimal `db:"purchase_price_usd"`
	BtcPriceUsdAtPurchase decimal.Decimal `db:"btc_price_usd_at_purchase"`
	CreatedAt             time.Time       `db:"created_at"`
	LockedUntil           time.Time       `db:"locked_until"`
}

// Trade is the immutable audit record of one settled conversion (cold data).
// Append-only; reconciliation replays these in CreatedAt order.
type Trade struct {
	Id            string          `db:"id"`
	UserId        string          `db:"user_id"`
	FromAsset     string          `db:"from_asset"`
	ToAsset       string          `db:"to_asset"`
	FromAmount    int64           `db:"from_amount"`
	ToAmount      int64           `db:"to_amount"`
	BtcPriceUsd   decimal.Decimal `db:"btc_price_usd"`
	AssetPriceUsd decimal.Decimal `db:"asset_price_usd"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Asset holds the last known USD price for a symbol, written by the price
// oracle and read for conversion math.
type Asset struct {
	Symbol    string          `db:"symbol"`
	Name      string          `db:"name"`
	PriceUsd  decimal.Decimal `db:"price_usd"`
	UpdatedAt time.Time       `db:"updated_at"`
}
