package common

import (
	"context"
	"log"
	"strings"

	"bitcoin-standard-go/internal/api"
	"bitcoin-standard-go/internal/database"
	"bitcoin-standard-go/internal/formance"
	"bitcoin-standard-go/internal/models"
	"bitcoin-standard-go/internal/prices"
	"bitcoin-standard-go/internal/settlement"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via other means (shell export,
	// docker, etc.), so a missing .env file is fine.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	Oracle    *prices.Service
	Engine    *settlement.Engine
	Portfolio *api.PortfolioService
	Mirror    *formance.Service
	Catalog   []models.AssetConfig
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	catalog, err := LoadAssetCatalog(cfg.Oracle.AssetsFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	client, err := prices.NewClient(cfg.Oracle)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	cache := prices.NewPriceCache(cfg.Oracle.FreshFor, cfg.Oracle.MaxStale)
	oracle := prices.NewService(client, cache, dbService, catalog, cfg.Oracle)

	var mirror *formance.Service
	var tradeMirror settlement.TradeMirror
	if cfg.Formance.StackURL != "" {
		mirror, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		tradeMirror = mirror
	}

	engine := settlement.NewEngine(dbService, oracle, tradeMirror, cfg.Settlement)
	portfolio := api.NewPortfolioService(dbService, engine, oracle)

	zap.L().Info("Services initialized",
		zap.Int("catalog_assets", len(catalog)),
		zap.Bool("audit_mirror", mirror != nil))

	return &Services{
		DbService: dbService,
		Oracle:    oracle,
		Engine:    engine,
		Portfolio: portfolio,
		Mirror:    mirror,
		Catalog:   catalog,
	}, nil
}

func (cs *Services) Close() {
	if cs.Mirror != nil {
		cs.Mirror.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
