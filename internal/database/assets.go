package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bitcoin-standard-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpsertAssetPrice persists the latest oracle quote so a restart still has
// a last-known-good fallback.
func (s *Service) UpsertAssetPrice(ctx context.Context, symbol, name string, priceUsd decimal.Decimal, asOf time.Time) error {
	_, err := s.db.ExecContext(ctx, queryUpsertAssetPrice,
		symbol, name, priceUsd.String(), asOf.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert asset price: %w", err)
	}
	return nil
}

// GetAsset returns the stored price row for a symbol, or nil if the oracle
// has never written one.
func (s *Service) GetAsset(ctx context.Context, symbol string) (*models.Asset, error) {
	var asset models.Asset
	var price string
	var updatedMillis int64
	err := s.db.QueryRowContext(ctx, queryGetAsset, symbol).Scan(
		&asset.Symbol, &asset.Name, &price, &updatedMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	asset.PriceUsd, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse asset price '%s': %w", price, err)
	}
	asset.UpdatedAt = time.UnixMilli(updatedMillis).UTC()
	return &asset, nil
}

func (s *Service) ListAssets(ctx context.Context) ([]models.Asset, error) {
	rows, err := s.db.QueryContext(ctx, queryListAssets)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var assets []models.Asset
	for rows.Next() {
		var asset models.Asset
		var price string
		var updatedMillis int64
		if err := rows.Scan(&asset.Symbol, &asset.Name, &price, &updatedMillis); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		asset.PriceUsd, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("failed to parse asset price '%s': %w", price, err)
		}
		asset.UpdatedAt = time.UnixMilli(updatedMillis).UTC()
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset rows: %w", err)
	}
	return assets, nil
}
