package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvertSats_BtcToStock(t *testing.T) {
	// 0.5 BTC at $100,000 buys $50,000 of a $200 stock: 250 shares.
	got, err := ConvertSats(50_000_000, decimal.NewFromInt(100_000), decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("ConvertSats failed: %v", err)
	}
	if got != 25_000_000_000 {
		t.Errorf("ConvertSats = %d, want 25000000000", got)
	}
}

func TestConvertSats_RoundTripWithinOneUnit(t *testing.T) {
	// Converting there and back may differ by at most one scaled unit per
	// conversion, so two hops stay within two units of the original.
	btcPrice := decimal.NewFromFloat(109235.42)
	stockPrice := decimal.NewFromFloat(178.25)

	original := int64(123_456_789)
	shares, err := ConvertSats(original, btcPrice, stockPrice)
	if err != nil {
		t.Fatalf("Forward conversion failed: %v", err)
	}
	back, err := ConvertSats(shares, stockPrice, btcPrice)
	if err != nil {
		t.Fatalf("Reverse conversion failed: %v", err)
	}

	diff := back - original
	if diff < -2 || diff > 2 {
		t.Errorf("Round trip drifted %d units (got %d from %d)", diff, back, original)
	}
}

func TestConvertSats_Rounding(t *testing.T) {
	one := decimal.NewFromInt(1)

	// 1 * 1 / 3 = 0.333... rounds to 0
	got, err := ConvertSats(1, one, decimal.NewFromInt(3))
	if err != nil {
		t.Fatalf("ConvertSats failed: %v", err)
	}
	if got != 0 {
		t.Errorf("ConvertSats(1, 1, 3) = %d, want 0", got)
	}

	// 2 * 1 / 3 = 0.666... rounds to 1
	got, err = ConvertSats(2, one, decimal.NewFromInt(3))
	if err != nil {
		t.Fatalf("ConvertSats failed: %v", err)
	}
	if got != 1 {
		t.Errorf("ConvertSats(2, 1, 3) = %d, want 1", got)
	}

	// Exactly half rounds away from zero: 1 * 1 / 2 = 0.5 -> 1
	got, err = ConvertSats(1, one, decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("ConvertSats failed: %v", err)
	}
	if got != 1 {
		t.Errorf("ConvertSats(1, 1, 2) = %d, want 1", got)
	}
}

func TestConvertSats_RejectsBadInputs(t *testing.T) {
	one := decimal.NewFromInt(1)

	if _, err := ConvertSats(0, one, one); err == nil {
		t.Error("Expected error for zero amount")
	}
	if _, err := ConvertSats(-5, one, one); err == nil {
		t.Error("Expected error for negative amount")
	}
	if _, err := ConvertSats(1, decimal.Zero, one); err == nil {
		t.Error("Expected error for zero from-price")
	}
	if _, err := ConvertSats(1, one, decimal.NewFromInt(-3)); err == nil {
		t.Error("Expected error for negative to-price")
	}
}

func TestConvertSats_Overflow(t *testing.T) {
	huge := decimal.New(1, 18) // 1e18
	if _, err := ConvertSats(1<<62, huge, decimal.NewFromInt(1)); err == nil {
		t.Error("Expected overflow error")
	}
}

func TestUsdValue(t *testing.T) {
	// 2.5 units at $200 = $500
	got := UsdValue(250_000_000, decimal.NewFromInt(200))
	if !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("UsdValue = %s, want 500", got)
	}
}
