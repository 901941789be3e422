package api

import (
	"context"
	"fmt"

	"bitcoin-standard-go/internal/database"
	"bitcoin-standard-go/internal/prices"
	"bitcoin-standard-go/internal/settlement"
)

// PortfolioService is the surface the CLI tools call into. It validates
// inputs and delegates to the settlement engine and ledger.
type PortfolioService struct {
	db     *database.Service
	engine *settlement.Engine
	oracle prices.Oracle
}

func NewPortfolioService(db *database.Service, engine *settlement.Engine, oracle prices.Oracle) *PortfolioService {
	return &PortfolioService{
		db:     db,
		engine: engine,
		oracle: oracle,
	}
}

func (s *PortfolioService) HealthCheck(ctx context.Context) error {
	_, err := s.db.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
