package settlement

import (
	"context"
	"fmt"

	"bitcoin-standard-go/internal/models"

	"go.uber.org/zap"
)

// replayHoldings rebuilds per-asset balances from the BTC seed plus the
// trade history in settlement order. Pure: same inputs, same output.
func replayHoldings(seedSats int64, trades []models.Trade) map[string]int64 {
	amounts := map[string]int64{
		models.BitcoinSymbol: seedSats,
	}
	for _, trade := range trades {
		amounts[trade.FromAsset] -= trade.FromAmount
		amounts[trade.ToAsset] += trade.ToAmount
	}
	return amounts
}

// ReconcileHoldings wipes and rebuilds a user's holdings strictly from the
// seed and the replayed trade history, then returns the rebuilt snapshot.
// Idempotent: running it twice yields the same holdings. This is an
// operational repair tool, never part of the settlement hot path.
func (e *Engine) ReconcileHoldings(ctx context.Context, userId string) ([]models.Holding, error) {
	trades, err := e.ledger.ListTradesAscending(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade history: %w", err)
	}

	amounts := replayHoldings(e.cfg.SeedSats, trades)
	for asset, amount := range amounts {
		if amount < 0 {
			zap.L().Error("Replay produced a negative balance, trade history is inconsistent",
				zap.String("user_id", userId),
				zap.String("asset", asset),
				zap.Int64("amount", amount))
		}
	}

	if err := e.ledger.ReplaceHoldings(ctx, userId, amounts); err != nil {
		return nil, fmt.Errorf("failed to replace holdings: %w", err)
	}

	zap.L().Info("Holdings rebuilt from trade history",
		zap.String("user_id", userId),
		zap.Int("trades_replayed", len(trades)),
		zap.Int("assets", len(amounts)))

	return e.ledger.GetUserHoldings(ctx, userId)
}

// DetectDrift compares live holdings against a replay of the trade history
// without writing anything. An empty result means the reconciliation
// invariant holds.
func (e *Engine) DetectDrift(ctx context.Context, userId string) ([]models.DriftEntry, error) {
	trades, err := e.ledger.ListTradesAscending(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade history: %w", err)
	}
	replayed := replayHoldings(e.cfg.SeedSats, trades)

	holdings, err := e.ledger.GetUserHoldings(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	live := make(map[string]int64, len(holdings))
	for _, holding := range holdings {
		live[holding.Asset] = holding.Amount
	}

	seen := make(map[string]bool)
	var drift []models.DriftEntry
	for asset, replayedAmount := range replayed {
		seen[asset] = true
		if live[asset] != replayedAmount {
			drift = append(drift, models.DriftEntry{
				Asset:    asset,
				Live:     live[asset],
				Replayed: replayedAmount,
			})
		}
	}
	for asset, liveAmount := range live {
		if !seen[asset] && liveAmount != 0 {
			drift = append(drift, models.DriftEntry{Asset: asset, Live: liveAmount})
		}
	}

	if len(drift) > 0 {
		zap.L().Warn("Holdings drift detected",
			zap.String("user_id", userId),
			zap.Int("assets", len(drift)))
	}
	return drift, nil
}
