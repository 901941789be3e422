package api

import (
	"context"
	"fmt"

	"bitcoin-standard-go/internal/models"
	"bitcoin-standard-go/internal/settlement"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettleTrade executes a conversion for the user. All settlement errors
// (validation, state, price, concurrency) pass through untouched so the
// caller can render the structured reasons.
func (s *PortfolioService) SettleTrade(ctx context.Context, userId, fromAsset, toAsset string, amount int64) (*models.TradeResult, error) {
	if userId == "" || fromAsset == "" || toAsset == "" {
		return nil, fmt.Errorf("user_id, from_asset and to_asset are required")
	}
	return s.engine.SettleTrade(ctx, userId, fromAsset, toAsset, amount)
}

// GetAvailableToSell reports holding/locked/available for one asset.
func (s *PortfolioService) GetAvailableToSell(ctx context.Context, userId, asset string) (*models.AvailableBalance, error) {
	if userId == "" || asset == "" {
		return nil, fmt.Errorf("user_id and asset are required")
	}
	return s.engine.GetAvailableToSell(ctx, userId, asset)
}

// GetLotHistory returns the user's lots for one asset with lock state and
// valuation.
func (s *PortfolioService) GetLotHistory(ctx context.Context, userId, asset string) ([]models.LotView, error) {
	if userId == "" || asset == "" {
		return nil, fmt.Errorf("user_id and asset are required")
	}
	return s.engine.GetLotHistory(ctx, userId, asset)
}

// ReconcileHoldings rebuilds the user's holdings from trade history.
func (s *PortfolioService) ReconcileHoldings(ctx context.Context, userId string) ([]models.Holding, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return s.engine.ReconcileHoldings(ctx, userId)
}

// DetectDrift compares live holdings against a trade-history replay.
func (s *PortfolioService) DetectDrift(ctx context.Context, userId string) ([]models.DriftEntry, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return s.engine.DetectDrift(ctx, userId)
}

// GetPortfolio values every holding of the user at current prices. Assets
// without a quote appear with HasMarketData false and do not contribute to
// the totals.
func (s *PortfolioService) GetPortfolio(ctx context.Context, userId string) (*models.PortfolioSnapshot, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	holdings, err := s.db.GetUserHoldings(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to get holdings", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve holdings")
	}

	btcQuote, btcErr := s.oracle.GetPrice(ctx, models.BitcoinSymbol)
	if btcErr != nil {
		zap.L().Warn("No BTC price for portfolio valuation", zap.Error(btcErr))
	}

	snapshot := &models.PortfolioSnapshot{UserId: userId}
	totalUsd := decimal.Zero
	var totalSats int64

	for _, holding := range holdings {
		entry := models.PortfolioEntry{
			Asset:  holding.Asset,
			Amount: holding.Amount,
		}

		quote, err := s.oracle.GetPrice(ctx, holding.Asset)
		if err == nil && btcErr == nil {
			entry.HasMarketData = true
			entry.PriceUsd = quote.USD
			entry.ValueUsd = settlement.UsdValue(holding.Amount, quote.USD)
			if holding.Asset == models.BitcoinSymbol {
				entry.ValueSats = holding.Amount
			} else if holding.Amount > 0 {
				sats, cerr := settlement.ConvertSats(holding.Amount, quote.USD, btcQuote.USD)
				if cerr != nil {
					zap.L().Warn("Failed to value holding in sats",
						zap.String("asset", holding.Asset),
						zap.Error(cerr))
				} else {
					entry.ValueSats = sats
				}
			}
			totalUsd = totalUsd.Add(entry.ValueUsd)
			totalSats += entry.ValueSats
		}

		snapshot.Entries = append(snapshot.Entries, entry)
		if entry.HasMarketData && quote.AsOf.After(snapshot.AsOf) {
			snapshot.AsOf = quote.AsOf
		}
	}

	snapshot.TotalValueUsd = totalUsd
	snapshot.TotalSats = totalSats
	return snapshot, nil
}
