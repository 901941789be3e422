package settlement

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bitcoin-standard-go/internal/database"
	"bitcoin-standard-go/internal/models"
	"bitcoin-standard-go/internal/prices"
	"bitcoin-standard-go/internal/store"

	"github.com/shopspring/decimal"
)

// stubOracle serves fixed prices; missing symbols fail like the real oracle.
type stubOracle struct {
	prices map[string]decimal.Decimal
}

func (o *stubOracle) GetPrice(_ context.Context, symbol string) (prices.Quote, error) {
	price, ok := o.prices[symbol]
	if !ok {
		return prices.Quote{}, fmt.Errorf("%w: %s", prices.ErrPriceUnavailable, symbol)
	}
	return prices.Quote{Symbol: symbol, USD: price, AsOf: time.Now()}, nil
}

func defaultOracle() *stubOracle {
	return &stubOracle{prices: map[string]decimal.Decimal{
		"BTC":  decimal.NewFromInt(100_000),
		"AMZN": decimal.NewFromInt(200),
		"GLD":  decimal.NewFromInt(250),
	}}
}

func defaultConfig() models.SettlementConfig {
	return models.SettlementConfig{
		LockWindow:      24 * time.Hour,
		MinBtcTradeSats: 100_000,
		SeedSats:        100_000_000,
	}
}

func newTestLedger(t *testing.T) (*database.Service, string) {
	t.Helper()

	cfg := models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     5 * time.Second,
		BusyTimeout:     2 * time.Second,
	}
	service, err := database.NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(service.Close)

	user, err := service.CreateUser(context.Background(), "Trader", "trader@example.com", defaultConfig().SeedSats)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return service, user.Id
}

func holdingAmount(t *testing.T, ledger store.Ledger, userId, asset string) int64 {
	t.Helper()
	holding, err := ledger.GetHolding(context.Background(), userId, asset)
	if errors.Is(err, store.ErrHoldingNotFound) {
		return 0
	}
	if err != nil {
		t.Fatalf("GetHolding failed: %v", err)
	}
	return holding.Amount
}

func TestSettleTrade_BuyCreatesLockedLot(t *testing.T) {
	ledger, userId := newTestLedger(t)
	engine := NewEngine(ledger, defaultOracle(), nil, defaultConfig())
	ctx := context.Background()

	before := time.Now()
	result, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 50_000_000)
	if err != nil {
		t.Fatalf("SettleTrade failed: %v", err)
	}

	// 0.5 BTC at $100k buys $50k of a $200 stock: 250 shares.
	if result.ToAmount != 25_000_000_000 {
		t.Errorf("Expected to_amount 25000000000, got %d", result.ToAmount)
	}
	if result.LockedUntil == nil {
		t.Fatal("Expected locked_until on a non-BTC acquisition")
	}
	if result.LockedUntil.Before(before.Add(23 * time.Hour)) {
		t.Errorf("Expected ~24h lock, got unlock at %v", result.LockedUntil)
	}

	if got := holdingAmount(t, ledger, userId, "BTC"); got != 50_000_000 {
		t.Errorf("Expected BTC holding 50000000, got %d", got)
	}
	if got := holdingAmount(t, ledger, userId, "AMZN"); got != 25_000_000_000 {
		t.Errorf("Expected AMZN holding 25000000000, got %d", got)
	}

	lots, err := ledger.ListActiveLots(ctx, userId, "AMZN")
	if err != nil {
		t.Fatalf("ListActiveLots failed: %v", err)
	}
	if len(lots) != 1 {
		t.Fatalf("Expected 1 active lot, got %d", len(lots))
	}
	if lots[0].Amount != 25_000_000_000 || lots[0].BtcSpent != 50_000_000 {
		t.Errorf("Lot amounts wrong: amount=%d btc_spent=%d", lots[0].Amount, lots[0].BtcSpent)
	}
	if !lots[0].PurchasePriceUsd.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected purchase price 200, got %s", lots[0].PurchasePriceUsd)
	}

	trades, err := ledger.ListTrades(ctx, userId)
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("Expected 1 trade record, got %d", len(trades))
	}
	if trades[0].Id != result.TradeId {
		t.Errorf("Expected trade id %s, got %s", result.TradeId, trades[0].Id)
	}
}

func TestSettleTrade_RejectsLockedSale(t *testing.T) {
	ledger, userId := newTestLedger(t)
	engine := NewEngine(ledger, defaultOracle(), nil, defaultConfig())
	ctx := context.Background()

	if _, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 50_000_000); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	// An hour later the 24h window is still open.
	engine.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err := engine.SettleTrade(ctx, userId, "AMZN", "BTC", 10_000_000_000)
	var locked *AssetLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("Expected AssetLockedError, got: %v", err)
	}
	if locked.Locked != 25_000_000_000 {
		t.Errorf("Expected locked 25000000000, got %d", locked.Locked)
	}
	if locked.Available != 0 {
		t.Errorf("Expected available 0, got %d", locked.Available)
	}

	// Rejection must not move balances.
	if got := holdingAmount(t, ledger, userId, "AMZN"); got != 25_000_000_000 {
		t.Errorf("AMZN holding changed on rejected sale: %d", got)
	}
	if got := holdingAmount(t, ledger, userId, "BTC"); got != 50_000_000 {
		t.Errorf("BTC holding changed on rejected sale: %d", got)
	}
}

func TestSettleTrade_SellAfterUnlock(t *testing.T) {
	ledger, userId := newTestLedger(t)
	cfg := defaultConfig()
	cfg.LockWindow = -time.Hour // lots are born already unlocked
	engine := NewEngine(ledger, defaultOracle(), nil, cfg)
	ctx := context.Background()

	if _, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 50_000_000); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	result, err := engine.SettleTrade(ctx, userId, "AMZN", "BTC", 25_000_000_000)
	if err != nil {
		t.Fatalf("Sell after unlock failed: %v", err)
	}
	if result.LockedUntil != nil {
		t.Error("Expected no lock on a BTC acquisition")
	}

	// Full round trip at unchanged prices restores the seed.
	if got := holdingAmount(t, ledger, userId, "BTC"); got != 100_000_000 {
		t.Errorf("Expected BTC restored to 100000000, got %d", got)
	}
	if got := holdingAmount(t, ledger, userId, "AMZN"); got != 0 {
		t.Errorf("Expected AMZN drained to 0, got %d", got)
	}
}

func TestSettleTrade_InsufficientBalance(t *testing.T) {
	ledger, userId := newTestLedger(t)
	engine := NewEngine(ledger, defaultOracle(), nil, defaultConfig())

	_, err := engine.SettleTrade(context.Background(), userId, "BTC", "AMZN", 200_000_000)
	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientBalanceError, got: %v", err)
	}
	if insufficient.Requested != 200_000_000 {
		t.Errorf("Expected requested 200000000, got %d", insufficient.Requested)
	}
	if insufficient.Available != 100_000_000 {
		t.Errorf("Expected available 100000000, got %d", insufficient.Available)
	}
}

func TestSettleTrade_ValidationErrors(t *testing.T) {
	ledger, userId := newTestLedger(t)
	engine := NewEngine(ledger, defaultOracle(), nil, defaultConfig())
	ctx := context.Background()

	if _, err := engine.SettleTrade(ctx, userId, "BTC", "BTC", 1_000_000); !errors.Is(err, ErrInvalidPair) {
		t.Errorf("Same pair: expected ErrInvalidPair, got %v", err)
	}
	if _, err := engine.SettleTrade(ctx, userId, "AMZN", "GLD", 1_000_000); !errors.Is(err, ErrUnsupportedPair) {
		t.Errorf("Stock-to-stock: expected ErrUnsupportedPair, got %v", err)
	}
	if _, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 0); !errors.Is(err, ErrNonPositiveAmount) {
		t.Errorf("Zero amount: expected ErrNonPositiveAmount, got %v", err)
	}
	if _, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", -1); !errors.Is(err, ErrNonPositiveAmount) {
		t.Errorf("Negative amount: expected ErrNonPositiveAmount, got %v", err)
	}

	var belowMin *BelowMinimumError
	if _, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 50_000); !errors.As(err, &belowMin) {
		t.Errorf("Tiny BTC spend: expected BelowMinimumError, got %v", err)
	}

	// The minimum applies only when spending BTC: a tiny stock sale fails on
	// balance, not on size.
	var insufficient *InsufficientBalanceError
	if _, err := engine.SettleTrade(ctx, userId, "AMZN", "BTC", 50_000); !errors.As(err, &insufficient) {
		t.Errorf("Tiny stock sale: expected InsufficientBalanceError, got %v", err)
	}

	// Validation failures must not write anything.
	trades, err := ledger.ListTrades(ctx, userId)
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("Expected no trades after rejections, got %d", len(trades))
	}
	if got := holdingAmount(t, ledger, userId, "BTC"); got != 100_000_000 {
		t.Errorf("Expected untouched seed, got %d", got)
	}
}

func TestSettleTrade_PriceUnavailableFailsClosed(t *testing.T) {
	ledger, userId := newTestLedger(t)
	oracle := &stubOracle{prices: map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(100_000),
	}}
	engine := NewEngine(ledger, oracle, nil, defaultConfig())

	_, err := engine.SettleTrade(context.Background(), userId, "BTC", "AMZN", 50_000_000)
	var noPrice *PriceUnavailableError
	if !errors.As(err, &noPrice) {
		t.Fatalf("Expected PriceUnavailableError, got: %v", err)
	}
	if noPrice.Symbol != "AMZN" {
		t.Errorf("Expected failing symbol AMZN, got %s", noPrice.Symbol)
	}
	if !errors.Is(err, prices.ErrPriceUnavailable) {
		t.Error("Expected wrapped ErrPriceUnavailable")
	}

	if got := holdingAmount(t, ledger, userId, "BTC"); got != 100_000_000 {
		t.Errorf("Expected untouched seed, got %d", got)
	}
}

// failingLedger wraps a real ledger and fails the trade insert, simulating a
// mid-settlement persistence failure.
type failingLedger struct {
	store.Ledger
	err error
}

func (l *failingLedger) WithHoldingLock(ctx context.Context, userId, asset string, fn func(tx store.Tx) error) error {
	return l.Ledger.WithHoldingLock(ctx, userId, asset, func(tx store.Tx) error {
		return fn(&failingTx{Tx: tx, err: l.err})
	})
}

type failingTx struct {
	store.Tx
	err error
}

func (t *failingTx) InsertTrade(context.Context, *models.Trade) error {
	return t.err
}

func TestSettleTrade_AtomicRollback(t *testing.T) {
	ledger, userId := newTestLedger(t)
	failure := errors.New("disk full")
	engine := NewEngine(&failingLedger{Ledger: ledger, err: failure}, defaultOracle(), nil, defaultConfig())
	ctx := context.Background()

	_, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 50_000_000)
	if !errors.Is(err, failure) {
		t.Fatalf("Expected injected failure, got: %v", err)
	}

	// The holdings deltas and the lot must have rolled back with the trade.
	if got := holdingAmount(t, ledger, userId, "BTC"); got != 100_000_000 {
		t.Errorf("Expected BTC holding restored to 100000000, got %d", got)
	}
	if got := holdingAmount(t, ledger, userId, "AMZN"); got != 0 {
		t.Errorf("Expected no AMZN holding, got %d", got)
	}
	lots, err := ledger.ListLots(ctx, userId, "AMZN")
	if err != nil {
		t.Fatalf("ListLots failed: %v", err)
	}
	if len(lots) != 0 {
		t.Errorf("Expected no lots after rollback, got %d", len(lots))
	}
}

func TestSettleTrade_ConcurrentSpendsNeverOverdraw(t *testing.T) {
	ledger, userId := newTestLedger(t)
	engine := NewEngine(ledger, defaultOracle(), nil, defaultConfig())
	ctx := context.Background()

	// 10 workers each try to spend 0.2 BTC from a 1 BTC seed; at most 5 can
	// succeed regardless of interleaving.
	const workers = 10
	const spend = int64(20_000_000)

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", spend)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var insufficient *InsufficientBalanceError
		if !errors.As(err, &insufficient) && !errors.Is(err, ErrPersistenceConflict) {
			t.Errorf("Unexpected failure mode: %v", err)
		}
	}

	if successes > 5 {
		t.Errorf("Expected at most 5 successful spends, got %d", successes)
	}
	if successes == 0 {
		t.Error("Expected at least one spend to settle")
	}

	btc := holdingAmount(t, ledger, userId, "BTC")
	if btc != 100_000_000-spend*int64(successes) {
		t.Errorf("BTC holding %d inconsistent with %d successes", btc, successes)
	}
	if btc < 0 {
		t.Errorf("BTC holding went negative: %d", btc)
	}

	// Per successful spend: 0.2 BTC * $100k / $200 = 100 shares.
	amzn := holdingAmount(t, ledger, userId, "AMZN")
	if amzn != int64(successes)*10_000_000_000 {
		t.Errorf("AMZN holding %d inconsistent with %d successes", amzn, successes)
	}

	trades, err := ledger.ListTrades(ctx, userId)
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if len(trades) != successes {
		t.Errorf("Expected %d trade records, got %d", successes, len(trades))
	}
}

func TestGetAvailableToSell(t *testing.T) {
	ledger, userId := newTestLedger(t)
	engine := NewEngine(ledger, defaultOracle(), nil, defaultConfig())
	ctx := context.Background()

	// BTC never locks.
	btc, err := engine.GetAvailableToSell(ctx, userId, "BTC")
	if err != nil {
		t.Fatalf("GetAvailableToSell failed: %v", err)
	}
	if btc.AvailableAmount != 100_000_000 || btc.Status != models.LockStatusUnlocked {
		t.Errorf("Expected fully available BTC, got %+v", btc)
	}

	if _, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 50_000_000); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	amzn, err := engine.GetAvailableToSell(ctx, userId, "AMZN")
	if err != nil {
		t.Fatalf("GetAvailableToSell failed: %v", err)
	}
	if amzn.HoldingAmount != 25_000_000_000 {
		t.Errorf("Expected holding 25000000000, got %d", amzn.HoldingAmount)
	}
	if amzn.LockedAmount != 25_000_000_000 {
		t.Errorf("Expected everything locked, got %d", amzn.LockedAmount)
	}
	if amzn.AvailableAmount != 0 {
		t.Errorf("Expected available 0, got %d", amzn.AvailableAmount)
	}
	if amzn.Status != models.LockStatusLocked {
		t.Errorf("Expected status locked, got %s", amzn.Status)
	}

	// Unknown asset: zero everything, not an error.
	none, err := engine.GetAvailableToSell(ctx, userId, "GLD")
	if err != nil {
		t.Fatalf("GetAvailableToSell failed: %v", err)
	}
	if none.HoldingAmount != 0 || none.AvailableAmount != 0 {
		t.Errorf("Expected empty balance, got %+v", none)
	}
}

func TestGetLotHistory(t *testing.T) {
	ledger, userId := newTestLedger(t)
	engine := NewEngine(ledger, defaultOracle(), nil, defaultConfig())
	ctx := context.Background()

	if _, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 50_000_000); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	views, err := engine.GetLotHistory(ctx, userId, "AMZN")
	if err != nil {
		t.Fatalf("GetLotHistory failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("Expected 1 lot view, got %d", len(views))
	}
	view := views[0]
	if !view.IsLocked {
		t.Error("Expected fresh lot to be locked")
	}
	if !view.HasMarketData {
		t.Fatal("Expected market data with a working oracle")
	}
	// 250 shares bought at $200, still at $200: no P&L.
	if !view.CostBasisUsd.Equal(decimal.NewFromInt(50_000)) {
		t.Errorf("Expected cost basis 50000, got %s", view.CostBasisUsd)
	}
	if !view.UnrealizedPnlUsd.IsZero() {
		t.Errorf("Expected zero P&L at unchanged price, got %s", view.UnrealizedPnlUsd)
	}

	// A dead oracle degrades to lock state only, not an error.
	engine.oracle = &stubOracle{prices: map[string]decimal.Decimal{}}
	views, err = engine.GetLotHistory(ctx, userId, "AMZN")
	if err != nil {
		t.Fatalf("GetLotHistory without prices failed: %v", err)
	}
	if views[0].HasMarketData {
		t.Error("Expected no market data with a dead oracle")
	}
}
