package settlement

import (
	"context"
	"testing"

	"bitcoin-standard-go/internal/models"
)

func TestReplayHoldings(t *testing.T) {
	trades := []models.Trade{
		{FromAsset: "BTC", ToAsset: "AMZN", FromAmount: 50_000_000, ToAmount: 25_000_000_000},
		{FromAsset: "AMZN", ToAsset: "BTC", FromAmount: 10_000_000_000, ToAmount: 20_000_000},
		{FromAsset: "BTC", ToAsset: "GLD", FromAmount: 30_000_000, ToAmount: 12_000_000_000},
	}

	amounts := replayHoldings(100_000_000, trades)

	if amounts["BTC"] != 100_000_000-50_000_000+20_000_000-30_000_000 {
		t.Errorf("BTC replay wrong: %d", amounts["BTC"])
	}
	if amounts["AMZN"] != 15_000_000_000 {
		t.Errorf("AMZN replay wrong: %d", amounts["AMZN"])
	}
	if amounts["GLD"] != 12_000_000_000 {
		t.Errorf("GLD replay wrong: %d", amounts["GLD"])
	}
}

func TestReplayHoldings_NoTrades(t *testing.T) {
	amounts := replayHoldings(100_000_000, nil)
	if len(amounts) != 1 || amounts[models.BitcoinSymbol] != 100_000_000 {
		t.Errorf("Expected only the BTC seed, got %v", amounts)
	}
}

func TestDetectDrift_CleanLedger(t *testing.T) {
	ledger, userId := newTestLedger(t)
	engine := NewEngine(ledger, defaultOracle(), nil, defaultConfig())
	ctx := context.Background()

	if _, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 50_000_000); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	drift, err := engine.DetectDrift(ctx, userId)
	if err != nil {
		t.Fatalf("DetectDrift failed: %v", err)
	}
	if len(drift) != 0 {
		t.Errorf("Expected no drift after normal settlement, got %v", drift)
	}
}

func TestReconcileHoldings_RepairsDrift(t *testing.T) {
	ledger, userId := newTestLedger(t)
	engine := NewEngine(ledger, defaultOracle(), nil, defaultConfig())
	ctx := context.Background()

	if _, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 50_000_000); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	// Corrupt the live holdings behind the engine's back.
	err := ledger.ReplaceHoldings(ctx, userId, map[string]int64{
		"BTC":  1,
		"AMZN": 25_000_000_000,
		"SPY":  42, // asset the trade history never touched
	})
	if err != nil {
		t.Fatalf("ReplaceHoldings failed: %v", err)
	}

	drift, err := engine.DetectDrift(ctx, userId)
	if err != nil {
		t.Fatalf("DetectDrift failed: %v", err)
	}
	driftedAssets := make(map[string]models.DriftEntry)
	for _, entry := range drift {
		driftedAssets[entry.Asset] = entry
	}
	if len(driftedAssets) != 2 {
		t.Fatalf("Expected drift on BTC and SPY, got %v", drift)
	}
	if entry := driftedAssets["BTC"]; entry.Live != 1 || entry.Replayed != 50_000_000 {
		t.Errorf("BTC drift wrong: %+v", entry)
	}
	if entry := driftedAssets["SPY"]; entry.Live != 42 || entry.Replayed != 0 {
		t.Errorf("SPY drift wrong: %+v", entry)
	}

	holdings, err := engine.ReconcileHoldings(ctx, userId)
	if err != nil {
		t.Fatalf("ReconcileHoldings failed: %v", err)
	}
	amounts := make(map[string]int64)
	for _, holding := range holdings {
		amounts[holding.Asset] = holding.Amount
	}
	if amounts["BTC"] != 50_000_000 {
		t.Errorf("Expected BTC repaired to 50000000, got %d", amounts["BTC"])
	}
	if amounts["AMZN"] != 25_000_000_000 {
		t.Errorf("Expected AMZN 25000000000, got %d", amounts["AMZN"])
	}
	if _, ok := amounts["SPY"]; ok {
		t.Error("Expected phantom SPY holding removed")
	}

	drift, err = engine.DetectDrift(ctx, userId)
	if err != nil {
		t.Fatalf("DetectDrift after repair failed: %v", err)
	}
	if len(drift) != 0 {
		t.Errorf("Expected no drift after repair, got %v", drift)
	}
}

func TestReconcileHoldings_Idempotent(t *testing.T) {
	ledger, userId := newTestLedger(t)
	engine := NewEngine(ledger, defaultOracle(), nil, defaultConfig())
	ctx := context.Background()

	if _, err := engine.SettleTrade(ctx, userId, "BTC", "AMZN", 50_000_000); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	first, err := engine.ReconcileHoldings(ctx, userId)
	if err != nil {
		t.Fatalf("First reconcile failed: %v", err)
	}
	second, err := engine.ReconcileHoldings(ctx, userId)
	if err != nil {
		t.Fatalf("Second reconcile failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Reconcile not idempotent: %d vs %d holdings", len(first), len(second))
	}
	firstAmounts := make(map[string]int64)
	for _, holding := range first {
		firstAmounts[holding.Asset] = holding.Amount
	}
	for _, holding := range second {
		if firstAmounts[holding.Asset] != holding.Amount {
			t.Errorf("Reconcile not idempotent for %s: %d vs %d",
				holding.Asset, firstAmounts[holding.Asset], holding.Amount)
		}
	}
}
