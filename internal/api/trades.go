package api

import (
	"context"
	"fmt"

	"bitcoin-standard-go/internal/models"

	"go.uber.org/zap"
)

// GetTradeHistory returns the user's trades, newest first.
func (s *PortfolioService) GetTradeHistory(ctx context.Context, userId string) ([]models.Trade, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	trades, err := s.db.ListTrades(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to get trade history", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve trade history")
	}
	return trades, nil
}
