package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bitcoin-standard-go/internal/models"
	"bitcoin-standard-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func getHolding(ctx context.Context, q querier, userId, asset string) (*models.Holding, error) {
	var holding models.Holding
	err := q.QueryRowContext(ctx, queryGetHolding, userId, asset).Scan(
		&holding.Id, &holding.UserId, &holding.Asset, &holding.Amount,
		&holding.LastTradeId, &holding.Version, &holding.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrHoldingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &holding, nil
}

// applyHoldingDelta adds delta to the (user, asset) holding, creating the
// row lazily on first acquisition. The version predicate on the update makes
// a lost write surface as store.ErrConcurrentModification instead of
// silently clobbering a concurrent settlement.
func applyHoldingDelta(ctx context.Context, q querier, userId, asset string, delta int64, tradeId string) (*models.Holding, error) {
	holding, err := getHolding(ctx, q, userId, asset)
	if errors.Is(err, store.ErrHoldingNotFound) {
		if delta < 0 {
			return nil, store.ErrHoldingNotFound
		}
		holding = &models.Holding{
			Id:          uuid.New().String(),
			UserId:      userId,
			Asset:       asset,
			Amount:      delta,
			LastTradeId: tradeId,
			Version:     1,
		}
		if _, err := q.ExecContext(ctx, queryInsertHolding,
			holding.Id, userId, asset, delta, tradeId); err != nil {
			return nil, fmt.Errorf("failed to create holding: %w", err)
		}
		return holding, nil
	}
	if err != nil {
		return nil, err
	}

	newAmount := holding.Amount + delta
	if newAmount < 0 {
		return nil, fmt.Errorf("%w: %s %s has %d, delta %d",
			store.ErrNegativeHolding, userId, asset, holding.Amount, delta)
	}

	result, err := q.ExecContext(ctx, queryUpdateHoldingAmount,
		newAmount, tradeId, userId, asset, holding.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update holding: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("holding update failed - %w", store.ErrConcurrentModification)
	}

	holding.Amount = newAmount
	holding.LastTradeId = tradeId
	holding.Version++
	return holding, nil
}

func (s *Service) GetHolding(ctx context.Context, userId, asset string) (*models.Holding, error) {
	return getHolding(ctx, s.db, userId, asset)
}

// GetUserHoldings returns all holding rows for a user, including rows that
// have reached zero (holdings are never deleted outside reconciliation).
func (s *Service) GetUserHoldings(ctx context.Context, userId string) ([]models.Holding, error) {
	zap.L().Debug("Getting holdings", zap.String("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryGetUserHoldings, userId)
	if err != nil {
		zap.L().Error("Failed to get holdings", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var holdings []models.Holding
	for rows.Next() {
		var holding models.Holding
		err := rows.Scan(&holding.Id, &holding.UserId, &holding.Asset, &holding.Amount,
			&holding.LastTradeId, &holding.Version, &holding.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, holding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding rows: %w", err)
	}

	return holdings, nil
}

// ReplaceHoldings atomically swaps every holding row of a user for the
// given amounts. Only reconciliation calls this.
func (s *Service) ReplaceHoldings(ctx context.Context, userId string, amounts map[string]int64) error {
	zap.L().Info("Replacing holdings from replay",
		zap.String("user_id", userId),
		zap.Int("assets", len(amounts)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to roll back transaction", zap.Error(err))
		}
	}()

	if _, err := tx.ExecContext(ctx, queryDeleteUserHoldings, userId); err != nil {
		return fmt.Errorf("failed to clear holdings: %w", err)
	}
	for asset, amount := range amounts {
		if _, err := tx.ExecContext(ctx, queryInsertHolding,
			uuid.New().String(), userId, asset, amount, ""); err != nil {
			return fmt.Errorf("failed to insert rebuilt holding for %s: %w", asset, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rebuilt holdings: %w", err)
	}
	return nil
}

func (t *ledgerTx) GetHolding(ctx context.Context, userId, asset string) (*models.Holding, error) {
	return getHolding(ctx, t.tx, userId, asset)
}

func (t *ledgerTx) ApplyHoldingDelta(ctx context.Context, userId, asset string, delta int64, tradeId string) (*models.Holding, error) {
	return applyHoldingDelta(ctx, t.tx, userId, asset, delta, tradeId)
}
