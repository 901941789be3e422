package formance

import (
	"errors"
	"strings"
	"testing"
)

func TestFormanceAsset(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"BTC", "BTC/8"},
		{"AMZN", "AMZN/8"},
		{"GLD", "GLD/8"},
	}
	for _, tt := range tests {
		if got := formanceAsset(tt.symbol); got != tt.want {
			t.Errorf("formanceAsset(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestIsConflictError(t *testing.T) {
	if isConflictError(nil) {
		t.Error("nil should not be a conflict error")
	}
	if isConflictError(errors.New("random failure")) {
		t.Error("arbitrary errors should not be conflicts")
	}
}

func TestNumscript_DeclaresAllVars(t *testing.T) {
	// RecordSwap binds these vars; the script must declare each of them or
	// the ledger rejects the transaction.
	for _, name := range []string{
		"$from_asset", "$from_amount", "$to_asset", "$to_amount",
		"$user_id", "$trade_id", "$btc_price_usd", "$asset_price_usd",
	} {
		if !strings.Contains(numscriptTradeSettled, name) {
			t.Errorf("numscript missing var %s", name)
		}
	}
}
