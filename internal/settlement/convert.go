package settlement

import (
	"fmt"

	"bitcoin-standard-go/internal/models"

	"github.com/shopspring/decimal"
)

// ConvertSats converts a scaled-integer amount of the from-asset into the
// equivalent scaled-integer amount of the to-asset through the USD bridge:
//
//	toAmount = round(amount * fromPriceUsd / toPriceUsd)
//
// The 1e8 scale cancels, so the division runs directly on scaled units.
// Rounding is half away from zero (half-up for the positive amounts used
// here) and happens in exactly this one place, so repeated small trades
// cannot systematically leak or mint value beyond one unit per trade.
func ConvertSats(amount int64, fromPriceUsd, toPriceUsd decimal.Decimal) (int64, error) {
	if amount <= 0 {
		return 0, ErrNonPositiveAmount
	}
	if fromPriceUsd.Sign() <= 0 {
		return 0, fmt.Errorf("from-asset price must be positive, got %s", fromPriceUsd)
	}
	if toPriceUsd.Sign() <= 0 {
		return 0, fmt.Errorf("to-asset price must be positive, got %s", toPriceUsd)
	}

	raw := decimal.NewFromInt(amount).Mul(fromPriceUsd).Div(toPriceUsd)
	rounded := raw.Round(0)

	big := rounded.BigInt()
	if !big.IsInt64() {
		return 0, fmt.Errorf("converted amount %s overflows int64", rounded)
	}
	return big.Int64(), nil
}

// UsdValue prices a scaled-integer amount at the given USD unit price.
func UsdValue(amount int64, priceUsd decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(amount).
		Div(decimal.NewFromInt(models.SatsPerUnit)).
		Mul(priceUsd)
}
