package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bitcoin-standard-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func insertTrade(ctx context.Context, q querier, trade *models.Trade) error {
	_, err := q.ExecContext(ctx, queryInsertTrade,
		trade.Id, trade.UserId, trade.FromAsset, trade.ToAsset,
		trade.FromAmount, trade.ToAmount,
		trade.BtcPriceUsd.String(), trade.AssetPriceUsd.String(),
		trade.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

func queryTrades(ctx context.Context, q querier, query string, userId string) ([]models.Trade, error) {
	rows, err := q.QueryContext(ctx, query, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var trades []models.Trade
	for rows.Next() {
		var trade models.Trade
		var btcPrice, assetPrice string
		var createdMillis int64
		err := rows.Scan(&trade.Id, &trade.UserId, &trade.FromAsset, &trade.ToAsset,
			&trade.FromAmount, &trade.ToAmount, &btcPrice, &assetPrice, &createdMillis)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		trade.BtcPriceUsd, err = decimal.NewFromString(btcPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to parse btc price '%s': %w", btcPrice, err)
		}
		trade.AssetPriceUsd, err = decimal.NewFromString(assetPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to parse asset price '%s': %w", assetPrice, err)
		}
		trade.CreatedAt = time.UnixMilli(createdMillis).UTC()

		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// ListTrades returns the user's trade history, newest first (display order).
func (s *Service) ListTrades(ctx context.Context, userId string) ([]models.Trade, error) {
	return queryTrades(ctx, s.db, queryListTradesDesc, userId)
}

// ListTradesAscending returns the user's trades oldest first, the order
// reconciliation replays them in.
func (s *Service) ListTradesAscending(ctx context.Context, userId string) ([]models.Trade, error) {
	return queryTrades(ctx, s.db, queryListTradesAsc, userId)
}

func (t *ledgerTx) InsertTrade(ctx context.Context, trade *models.Trade) error {
	return insertTrade(ctx, t.tx, trade)
}
