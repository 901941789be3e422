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

func insertLot(ctx context.Context, q querier, lot *models.Lot) error {
	_, err := q.ExecContext(ctx, queryInsertLot,
		lot.Id, lot.UserId, lot.Asset, lot.Amount, lot.BtcSpent,
		lot.PurchasePriceUsd.String(), lot.BtcPriceUsdAtPurchase.String(),
		lot.CreatedAt.UnixMilli(), lot.LockedUntil.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert lot: %w", err)
	}
	return nil
}

func scanLots(rows *sql.Rows) ([]models.Lot, error) {
	var lots []models.Lot
	for rows.Next() {
		var lot models.Lot
		var purchasePrice, btcPrice string
		var createdMillis, lockedMillis int64
		err := rows.Scan(&lot.Id, &lot.UserId, &lot.Asset, &lot.Amount, &lot.BtcSpent,
			&purchasePrice, &btcPrice, &createdMillis, &lockedMillis)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}

		lot.PurchasePriceUsd, err = decimal.NewFromString(purchasePrice)
		if err != nil {
			return nil, fmt.Errorf("failed to parse purchase price '%s': %w", purchasePrice, err)
		}
		lot.BtcPriceUsdAtPurchase, err = decimal.NewFromString(btcPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to parse btc price '%s': %w", btcPrice, err)
		}
		lot.CreatedAt = time.UnixMilli(createdMillis).UTC()
		lot.LockedUntil = time.UnixMilli(lockedMillis).UTC()

		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lot rows: %w", err)
	}
	return lots, nil
}

func queryLots(ctx context.Context, q querier, query string, args ...any) ([]models.Lot, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)
	return scanLots(rows)
}

// ListActiveLots returns lots whose lock window has not yet expired,
// oldest first.
func (s *Service) ListActiveLots(ctx context.Context, userId, asset string) ([]models.Lot, error) {
	return queryLots(ctx, s.db, queryListActiveLots, userId, asset, time.Now().UnixMilli())
}

// ListLots returns the full lot history for (user, asset), oldest first.
func (s *Service) ListLots(ctx context.Context, userId, asset string) ([]models.Lot, error) {
	return queryLots(ctx, s.db, queryListLots, userId, asset)
}

func (t *ledgerTx) ListActiveLots(ctx context.Context, userId, asset string) ([]models.Lot, error) {
	return queryLots(ctx, t.tx, queryListActiveLots, userId, asset, time.Now().UnixMilli())
}

func (t *ledgerTx) InsertLot(ctx context.Context, lot *models.Lot) error {
	return insertLot(ctx, t.tx, lot)
}
