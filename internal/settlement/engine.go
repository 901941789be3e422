package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitcoin-standard-go/internal/models"
	"bitcoin-standard-go/internal/prices"
	"bitcoin-standard-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TradeMirror receives a copy of every settled trade for external auditing.
// Mirror failures are logged and never fail a settlement.
type TradeMirror interface {
	RecordSwap(ctx context.Context, trade *models.Trade) error
}

// Engine orchestrates trade settlement: validation, price lookup,
// conversion arithmetic and the atomic persistence of holdings delta, lot
// and trade record.
type Engine struct {
	ledger store.Ledger
	oracle prices.Oracle
	mirror TradeMirror
	cfg    models.SettlementConfig
	now    func() time.Time
}

// NewEngine creates a settlement engine. mirror may be nil.
func NewEngine(ledger store.Ledger, oracle prices.Oracle, mirror TradeMirror, cfg models.SettlementConfig) *Engine {
	return &Engine{
		ledger: ledger,
		oracle: oracle,
		mirror: mirror,
		cfg:    cfg,
		now:    time.Now,
	}
}

// SettleTrade converts amount scaled units of fromAsset into toAsset for
// the user. Exactly one side must be BTC. On success the holdings delta,
// the purchase lot (for non-BTC acquisitions) and the trade record have
// all been committed together; on any error nothing was persisted.
func (e *Engine) SettleTrade(ctx context.Context, userId, fromAsset, toAsset string, amount int64) (*models.TradeResult, error) {
	if fromAsset == toAsset {
		return nil, ErrInvalidPair
	}
	fromIsBtc := fromAsset == models.BitcoinSymbol
	toIsBtc := toAsset == models.BitcoinSymbol
	if fromIsBtc == toIsBtc {
		return nil, ErrUnsupportedPair
	}
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if fromIsBtc && amount < e.cfg.MinBtcTradeSats {
		return nil, &BelowMinimumError{RequestedSats: amount, MinimumSats: e.cfg.MinBtcTradeSats}
	}

	fromQuote, err := e.oracle.GetPrice(ctx, fromAsset)
	if err != nil {
		return nil, &PriceUnavailableError{Symbol: fromAsset, Err: err}
	}
	toQuote, err := e.oracle.GetPrice(ctx, toAsset)
	if err != nil {
		return nil, &PriceUnavailableError{Symbol: toAsset, Err: err}
	}

	toAmount, err := ConvertSats(amount, fromQuote.USD, toQuote.USD)
	if err != nil {
		return nil, err
	}

	btcPrice, assetPrice := fromQuote.USD, toQuote.USD
	if !fromIsBtc {
		btcPrice, assetPrice = toQuote.USD, fromQuote.USD
	}

	now := e.now()
	trade := &models.Trade{
		Id:            uuid.New().String(),
		UserId:        userId,
		FromAsset:     fromAsset,
		ToAsset:       toAsset,
		FromAmount:    amount,
		ToAmount:      toAmount,
		BtcPriceUsd:   btcPrice,
		AssetPriceUsd: assetPrice,
		CreatedAt:     now,
	}
	var lockedUntil *time.Time

	err = e.ledger.WithHoldingLock(ctx, userId, fromAsset, func(tx store.Tx) error {
		holding, err := tx.GetHolding(ctx, userId, fromAsset)
		if errors.Is(err, store.ErrHoldingNotFound) {
			return &InsufficientBalanceError{Asset: fromAsset, Requested: amount, Available: 0}
		}
		if err != nil {
			return err
		}
		if holding.Amount < amount {
			return &InsufficientBalanceError{Asset: fromAsset, Requested: amount, Available: holding.Amount}
		}

		if !fromIsBtc {
			lots, err := tx.ListActiveLots(ctx, userId, fromAsset)
			if err != nil {
				return err
			}
			locked := LockedAmount(lots, now)
			available, drift := AvailableAmount(holding.Amount, locked)
			if drift {
				zap.L().Error("Locked lots exceed aggregate holding, reconciliation needed",
					zap.String("user_id", userId),
					zap.String("asset", fromAsset),
					zap.Int64("holding", holding.Amount),
					zap.Int64("locked", locked))
			}
			if amount > available {
				return &AssetLockedError{Asset: fromAsset, Requested: amount, Locked: locked, Available: available}
			}
		}

		if _, err := tx.ApplyHoldingDelta(ctx, userId, fromAsset, -amount, trade.Id); err != nil {
			return err
		}

		if !toIsBtc {
			until := now.Add(e.cfg.LockWindow)
			lockedUntil = &until
			lot := &models.Lot{
				Id:                    uuid.New().String(),
				UserId:                userId,
				Asset:                 toAsset,
				Amount:                toAmount,
				BtcSpent:              amount,
				PurchasePriceUsd:      assetPrice,
				BtcPriceUsdAtPurchase: btcPrice,
				CreatedAt:             now,
				LockedUntil:           until,
			}
			if err := tx.InsertLot(ctx, lot); err != nil {
				return err
			}
		}

		if _, err := tx.ApplyHoldingDelta(ctx, userId, toAsset, toAmount, trade.Id); err != nil {
			return err
		}

		return tx.InsertTrade(ctx, trade)
	})
	if err != nil {
		if errors.Is(err, store.ErrConcurrentModification) {
			return nil, fmt.Errorf("%w: %v", ErrPersistenceConflict, err)
		}
		return nil, err
	}

	zap.L().Info("Trade settled",
		zap.String("trade_id", trade.Id),
		zap.String("user_id", userId),
		zap.String("from", fromAsset),
		zap.String("to", toAsset),
		zap.Int64("from_amount", amount),
		zap.Int64("to_amount", toAmount))

	if e.mirror != nil {
		if merr := e.mirror.RecordSwap(ctx, trade); merr != nil {
			zap.L().Warn("Failed to mirror trade to audit ledger",
				zap.String("trade_id", trade.Id),
				zap.Error(merr))
		}
	}

	return &models.TradeResult{
		TradeId:       trade.Id,
		FromAsset:     fromAsset,
		ToAsset:       toAsset,
		FromAmount:    amount,
		ToAmount:      toAmount,
		BtcPriceUsd:   btcPrice,
		AssetPriceUsd: assetPrice,
		LockedUntil:   lockedUntil,
	}, nil
}

// GetAvailableToSell reports the holding, its locked slice and the amount
// transferable right now. BTC carries no lots and is always fully available.
func (e *Engine) GetAvailableToSell(ctx context.Context, userId, asset string) (*models.AvailableBalance, error) {
	var holdingAmount int64
	holding, err := e.ledger.GetHolding(ctx, userId, asset)
	if err != nil && !errors.Is(err, store.ErrHoldingNotFound) {
		return nil, err
	}
	if holding != nil {
		holdingAmount = holding.Amount
	}

	if asset == models.BitcoinSymbol {
		return &models.AvailableBalance{
			Asset:           asset,
			HoldingAmount:   holdingAmount,
			AvailableAmount: holdingAmount,
			Status:          models.LockStatusUnlocked,
		}, nil
	}

	lots, err := e.ledger.ListActiveLots(ctx, userId, asset)
	if err != nil {
		return nil, err
	}
	locked := LockedAmount(lots, e.now())
	available, drift := AvailableAmount(holdingAmount, locked)
	if drift {
		zap.L().Error("Locked lots exceed aggregate holding, reconciliation needed",
			zap.String("user_id", userId),
			zap.String("asset", asset),
			zap.Int64("holding", holdingAmount),
			zap.Int64("locked", locked))
	}

	return &models.AvailableBalance{
		Asset:           asset,
		HoldingAmount:   holdingAmount,
		LockedAmount:    locked,
		AvailableAmount: available,
		Status:          ClassifyLock(holdingAmount, locked),
		DriftSuspected:  drift,
	}, nil
}

// GetLotHistory returns every lot for (user, asset) oldest first, with
// derived lock state and, when a price is available, current valuation and
// unrealized P&L. Valuation is display data only; lots are never consumed.
func (e *Engine) GetLotHistory(ctx context.Context, userId, asset string) ([]models.LotView, error) {
	lots, err := e.ledger.ListLots(ctx, userId, asset)
	if err != nil {
		return nil, err
	}

	quote, qerr := e.oracle.GetPrice(ctx, asset)
	if qerr != nil {
		zap.L().Warn("No current price for lot valuation",
			zap.String("asset", asset),
			zap.Error(qerr))
	}

	now := e.now()
	views := make([]models.LotView, len(lots))
	for i, lot := range lots {
		view := models.LotView{
			Lot:      lot,
			IsLocked: lot.LockedUntil.After(now),
			UnlockAt: lot.LockedUntil,
		}
		if qerr == nil {
			view.HasMarketData = true
			view.CurrentPriceUsd = quote.USD
			view.CostBasisUsd = UsdValue(lot.Amount, lot.PurchasePriceUsd)
			view.CurrentValueUsd = UsdValue(lot.Amount, quote.USD)
			view.UnrealizedPnlUsd = view.CurrentValueUsd.Sub(view.CostBasisUsd)
		}
		views[i] = view
	}
	return views, nil
}
