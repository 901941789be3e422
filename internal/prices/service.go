package prices

import (
	"context"
	"fmt"
	"time"

	"bitcoin-standard-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves one spot price from an upstream market-data API.
type Fetcher interface {
	FetchPrice(ctx context.Context, asset models.AssetConfig) (decimal.Decimal, error)
}

// AssetStore persists last-known prices so restarts keep a fallback.
type AssetStore interface {
	UpsertAssetPrice(ctx context.Context, symbol, name string, priceUsd decimal.Decimal, asOf time.Time) error
	GetAsset(ctx context.Context, symbol string) (*models.Asset, error)
}

// Compile-time check: *Service must satisfy Oracle.
var _ Oracle = (*Service)(nil)

// Service is the price oracle: a fetcher fronted by the in-memory
// last-known-good cache, with the assets table as a second-level fallback.
// Lookup order: fresh cache hit, upstream fetch, stale cache, stored row.
type Service struct {
	fetcher  Fetcher
	cache    *PriceCache
	store    AssetStore
	catalog  map[string]models.AssetConfig
	maxStale time.Duration
	now      func() time.Time
}

func NewService(fetcher Fetcher, cache *PriceCache, store AssetStore, catalog []models.AssetConfig, cfg models.OracleConfig) *Service {
	byCatalog := make(map[string]models.AssetConfig, len(catalog))
	for _, asset := range catalog {
		byCatalog[asset.Symbol] = asset
	}
	return &Service{
		fetcher:  fetcher,
		cache:    cache,
		store:    store,
		catalog:  byCatalog,
		maxStale: cfg.MaxStale,
		now:      time.Now,
	}
}

func (s *Service) GetPrice(ctx context.Context, symbol string) (Quote, error) {
	asset, ok := s.catalog[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("%w: unknown symbol %s", ErrPriceUnavailable, symbol)
	}

	now := s.now()
	if cached, fresh, ok := s.cache.Get(symbol, now); ok && fresh {
		return cached, nil
	}

	price, err := s.fetcher.FetchPrice(ctx, asset)
	if err == nil {
		quote := Quote{Symbol: symbol, USD: price, AsOf: now}
		s.cache.Put(quote)
		if serr := s.store.UpsertAssetPrice(ctx, symbol, asset.Name, price, now); serr != nil {
			zap.L().Warn("Failed to persist price",
				zap.String("symbol", symbol),
				zap.Error(serr))
		}
		return quote, nil
	}

	zap.L().Warn("Price fetch failed, falling back to last known price",
		zap.String("symbol", symbol),
		zap.Error(err))

	// Stale-but-present cache entry still within the staleness ceiling.
	if cached, _, ok := s.cache.Get(symbol, now); ok {
		return cached, nil
	}

	// Last resort: the persisted price row from an earlier run.
	stored, serr := s.store.GetAsset(ctx, symbol)
	if serr != nil {
		zap.L().Error("Failed to read stored price",
			zap.String("symbol", symbol),
			zap.Error(serr))
	}
	if stored != nil && (s.maxStale <= 0 || now.Sub(stored.UpdatedAt) <= s.maxStale) {
		quote := Quote{Symbol: symbol, USD: stored.PriceUsd, AsOf: stored.UpdatedAt}
		s.cache.Put(quote)
		return quote, nil
	}

	return Quote{}, fmt.Errorf("%w: %s (fetch failed: %v)", ErrPriceUnavailable, symbol, err)
}

// RefreshAll fetches the whole catalog concurrently and reports how many
// symbols were refreshed. Individual failures are logged, not fatal: the
// last-known-good value keeps serving.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	results := make(chan Quote, len(s.catalog))
	for _, asset := range s.catalog {
		asset := asset
		g.Go(func() error {
			price, err := s.fetcher.FetchPrice(gctx, asset)
			if err != nil {
				zap.L().Warn("Price refresh failed",
					zap.String("symbol", asset.Symbol),
					zap.Error(err))
				return nil
			}
			results <- Quote{Symbol: asset.Symbol, USD: price, AsOf: s.now()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(results)

	refreshed := 0
	for quote := range results {
		s.cache.Put(quote)
		name := s.catalog[quote.Symbol].Name
		if err := s.store.UpsertAssetPrice(ctx, quote.Symbol, name, quote.USD, quote.AsOf); err != nil {
			zap.L().Warn("Failed to persist refreshed price",
				zap.String("symbol", quote.Symbol),
				zap.Error(err))
		}
		refreshed++
	}

	zap.L().Info("Price refresh complete",
		zap.Int("refreshed", refreshed),
		zap.Int("catalog", len(s.catalog)))
	return refreshed, nil
}
