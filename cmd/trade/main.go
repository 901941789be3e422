package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitcoin-standard-go/internal/common"
	"bitcoin-standard-go/internal/config"
	"bitcoin-standard-go/internal/settlement"

	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "email of the trading user")
	fromAsset := flag.String("from", "", "asset to spend (e.g. BTC)")
	toAsset := flag.String("to", "", "asset to acquire (e.g. AMZN)")
	amount := flag.String("amount", "", "amount of the from-asset in whole units (e.g. 0.5)")
	flag.Parse()

	logger, cleanup := common.InitializeLogger()
	defer cleanup()

	if *email == "" || *fromAsset == "" || *toAsset == "" || *amount == "" {
		logger.Fatal("Usage: trade -email <email> -from <asset> -to <asset> -amount <units>")
	}

	amountSats, err := common.ParseSats(*amount)
	if err != nil {
		logger.Fatal("Invalid amount", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := services.DbService.GetUserByEmail(ctx, *email)
	if err != nil {
		logger.Fatal("Unknown user", zap.Error(err))
	}

	from := strings.ToUpper(*fromAsset)
	to := strings.ToUpper(*toAsset)

	result, err := services.Portfolio.SettleTrade(ctx, user.Id, from, to, amountSats)
	if err != nil {
		printRejection(err)
		os.Exit(1)
	}

	common.PrintHeader("Trade settled", common.DefaultWidth)
	fmt.Printf("Trade ID:  %s\n", result.TradeId)
	fmt.Printf("Sold:      %s %s\n", common.FormatSats(result.FromAmount), result.FromAsset)
	fmt.Printf("Received:  %s %s\n", common.FormatSats(result.ToAmount), result.ToAsset)
	fmt.Printf("BTC/USD:   %s\n", common.FormatUsd(result.BtcPriceUsd))
	fmt.Printf("Asset/USD: %s\n", common.FormatUsd(result.AssetPriceUsd))
	if result.LockedUntil != nil {
		fmt.Printf("Locked until: %s\n", result.LockedUntil.Format("2006-01-02 15:04:05 MST"))
	}
	common.PrintFooter("Done", common.DefaultWidth)
}

// printRejection renders every settlement failure with the concrete numbers
// the user needs to correct the request.
func printRejection(err error) {
	var insufficient *settlement.InsufficientBalanceError
	var locked *settlement.AssetLockedError
	var belowMin *settlement.BelowMinimumError
	var noPrice *settlement.PriceUnavailableError

	switch {
	case errors.As(err, &insufficient):
		fmt.Printf("Rejected: insufficient %s balance (requested %s, available %s)\n",
			insufficient.Asset,
			common.FormatSats(insufficient.Requested),
			common.FormatSats(insufficient.Available))
	case errors.As(err, &locked):
		fmt.Printf("Rejected: %s is still lock-protected (requested %s, locked %s, available %s)\n",
			locked.Asset,
			common.FormatSats(locked.Requested),
			common.FormatSats(locked.Locked),
			common.FormatSats(locked.Available))
	case errors.As(err, &belowMin):
		fmt.Printf("Rejected: below minimum trade size (requested %d sats, minimum %d sats)\n",
			belowMin.RequestedSats, belowMin.MinimumSats)
	case errors.As(err, &noPrice):
		fmt.Printf("Rejected: no price available for %s\n", noPrice.Symbol)
	case errors.Is(err, settlement.ErrPersistenceConflict):
		fmt.Println("Rejected: a concurrent trade touched the same holding; retry the trade")
	default:
		fmt.Printf("Rejected: %v\n", err)
	}
}
