package formance

import (
	"context"
	"fmt"
	"strconv"

	"bitcoin-standard-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// A settled trade is a two-legged swap against the exchange liquidity
// account: the user's from-asset moves out, the to-asset moves in. All
// metadata is set inside the script so the Formance transaction is fully
// self-describing.
const numscriptTradeSettled = `vars {
  asset $from_asset
  number $from_amount
  asset $to_asset
  number $to_amount
  account $user_id
  string $trade_id
  string $btc_price_usd
  string $asset_price_usd
}

send [$from_asset $from_amount] (
  source = @users:$user_id allowing unbounded overdraft
  destination = @exchange:liquidity
)

send [$to_asset $to_amount] (
  source = @exchange:liquidity allowing unbounded overdraft
  destination = @users:$user_id
)

set_tx_meta("event_type", "trade_settled")
set_tx_meta("trade_id", $trade_id)
set_tx_meta("btc_price_usd", $btc_price_usd)
set_tx_meta("asset_price_usd", $asset_price_usd)
`

// RecordSwap posts one settled trade to the audit ledger. Idempotent on the
// trade id: mirroring the same trade twice is a no-op.
func (s *Service) RecordSwap(ctx context.Context, trade *models.Trade) error {
	postTx := shared.V2PostTransaction{
		Reference: strPtr(trade.Id),
		Script: &shared.V2PostTransactionScript{
			Plain: numscriptTradeSettled,
			Vars: map[string]string{
				"from_asset":      formanceAsset(trade.FromAsset),
				"from_amount":     strconv.FormatInt(trade.FromAmount, 10),
				"to_asset":        formanceAsset(trade.ToAsset),
				"to_amount":       strconv.FormatInt(trade.ToAmount, 10),
				"user_id":         trade.UserId,
				"trade_id":        trade.Id,
				"btc_price_usd":   trade.BtcPriceUsd.String(),
				"asset_price_usd": trade.AssetPriceUsd.String(),
			},
		},
	}
	if !trade.CreatedAt.IsZero() {
		timestamp := trade.CreatedAt
		postTx.Timestamp = &timestamp
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			return nil // already mirrored
		}
		return fmt.Errorf("error recording trade in audit ledger: %w", err)
	}

	zap.L().Info("Trade mirrored to audit ledger",
		zap.String("trade_id", trade.Id),
		zap.String("from", trade.FromAsset),
		zap.String("to", trade.ToAsset))
	return nil
}
