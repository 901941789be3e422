package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LockStatus classifies how much of a holding is transferable right now.
type LockStatus string

const (
	LockStatusUnlocked LockStatus = "unlocked"
	LockStatusPartial  LockStatus = "partial"
	LockStatusLocked   LockStatus = "locked"
)

// TradeResult is returned to the caller after a successful settlement.
// LockedUntil is nil when the destination asset is BTC (no lock created).
type TradeResult struct {
	TradeId       string          `json:"trade_id"`
	FromAsset     string          `json:"from_asset"`
	ToAsset       string          `json:"to_asset"`
	FromAmount    int64           `json:"from_amount"`
	ToAmount      int64           `json:"to_amount"`
	BtcPriceUsd   decimal.Decimal `json:"btc_price_usd"`
	AssetPriceUsd decimal.Decimal `json:"asset_price_usd"`
	LockedUntil   *time.Time      `json:"locked_until,omitempty"`
}

// AvailableBalance reports how much of a holding can be sold right now.
// DriftSuspected is set when the locked sum exceeds the aggregate holding,
// which only happens when holdings and lots have drifted apart.
type AvailableBalance struct {
	Asset           string     `json:"asset"`
	HoldingAmount   int64      `json:"holding_amount"`
	LockedAmount    int64      `json:"locked_amount"`
	AvailableAmount int64      `json:"available_amount"`
	Status          LockStatus `json:"status"`
	DriftSuspected  bool       `json:"drift_suspected,omitempty"`
}

// LotView is a lot plus derived lock state and, when market data is
// available, its current valuation. Cost basis here is informational only:
// selling decrements the aggregate holding, never individual lots.
type LotView struct {
	Lot              Lot             `json:"lot"`
	IsLocked         bool            `json:"is_locked"`
	UnlockAt         time.Time       `json:"unlock_at"`
	HasMarketData    bool            `json:"has_market_data"`
	CurrentPriceUsd  decimal.Decimal `json:"current_price_usd,omitempty"`
	CostBasisUsd     decimal.Decimal `json:"cost_basis_usd,omitempty"`
	CurrentValueUsd  decimal.Decimal `json:"current_value_usd,omitempty"`
	UnrealizedPnlUsd decimal.Decimal `json:"unrealized_pnl_usd,omitempty"`
}

// PortfolioEntry is one priced holding inside a portfolio snapshot.
type PortfolioEntry struct {
	Asset         string          `json:"asset"`
	Amount        int64           `json:"amount"`
	PriceUsd      decimal.Decimal `json:"price_usd"`
	ValueUsd      decimal.Decimal `json:"value_usd"`
	ValueSats     int64           `json:"value_sats"`
	HasMarketData bool            `json:"has_market_data"`
}

// PortfolioSnapshot is a user's full portfolio valued at current prices.
type PortfolioSnapshot struct {
	UserId        string           `json:"user_id"`
	Entries       []PortfolioEntry `json:"entries"`
	TotalValueUsd decimal.Decimal  `json:"total_value_usd"`
	TotalSats     int64            `json:"total_sats"`
	AsOf          time.Time        `json:"as_of"`
}

// DriftEntry reports one asset where the live holding disagrees with a
// replay of the trade history.
type DriftEntry struct {
	Asset    string `json:"asset"`
	Live     int64  `json:"live"`
	Replayed int64  `json:"replayed"`
}

// AssetConfig is one entry of the tradeable-asset catalog (assets.yaml).
// Crypto assets are priced through CoinGecko by id, everything else through
// the quote API by ticker.
type AssetConfig struct {
	Symbol      string `yaml:"symbol"`
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"` // crypto, stock, commodity
	CoingeckoId string `yaml:"coingecko_id,omitempty"`
	QuoteSymbol string `yaml:"quote_symbol,omitempty"`
}
