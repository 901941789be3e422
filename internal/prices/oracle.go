package prices

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned when no upstream and no acceptable
// fallback can supply a quote. The settlement engine fails closed on it.
var ErrPriceUnavailable = errors.New("price unavailable")

// Quote is one USD price observation for a symbol.
type Quote struct {
	Symbol string
	USD    decimal.Decimal
	AsOf   time.Time
}

// Oracle supplies current USD prices per asset symbol. Implementations must
// tolerate upstream staleness: a stale-but-present quote is an answer, not
// an error.
type Oracle interface {
	GetPrice(ctx context.Context, symbol string) (Quote, error)
}
