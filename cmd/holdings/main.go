package main

import (
	"context"
	"flag"
	"fmt"

	"bitcoin-standard-go/internal/common"
	"bitcoin-standard-go/internal/config"
	"bitcoin-standard-go/internal/models"

	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "email of the user to report on")
	flag.Parse()

	logger, cleanup := common.InitializeLogger()
	defer cleanup()

	if *email == "" {
		logger.Fatal("Usage: holdings -email <email>")
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

	snapshot, err := services.Portfolio.GetPortfolio(ctx, user.Id)
	if err != nil {
		logger.Fatal("Failed to build portfolio", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("Portfolio for %s <%s>", user.Name, user.Email), common.DefaultWidth)

	if len(snapshot.Entries) == 0 {
		fmt.Println("No holdings.")
	}

	for i, entry := range snapshot.Entries {
		prefix := common.BoxPrefix(i == len(snapshot.Entries)-1)
		printEntry(ctx, services, user.Id, prefix, entry)
	}

	fmt.Println()
	fmt.Printf("Total value: %s (%s BTC)\n",
		common.FormatUsd(snapshot.TotalValueUsd),
		common.FormatSats(snapshot.TotalSats))
	if !snapshot.AsOf.IsZero() {
		fmt.Printf("Prices as of: %s\n", snapshot.AsOf.Format("2006-01-02 15:04:05 MST"))
	}
	common.PrintFooter("Done", common.DefaultWidth)
}

func printEntry(ctx context.Context, services *common.Services, userId, prefix string, entry models.PortfolioEntry) {
	if !entry.HasMarketData {
		fmt.Printf("%s%-6s %s  (no market data)\n", prefix, entry.Asset, common.FormatSats(entry.Amount))
		return
	}

	fmt.Printf("%s%-6s %s  @ %s  = %s\n",
		prefix, entry.Asset,
		common.FormatSats(entry.Amount),
		common.FormatUsd(entry.PriceUsd),
		common.FormatUsd(entry.ValueUsd))

	// Lock detail only matters for assets that carry lots.
	if entry.Asset == models.BitcoinSymbol {
		return
	}

	available, err := services.Portfolio.GetAvailableToSell(ctx, userId, entry.Asset)
	if err != nil {
		zap.L().Warn("Failed to get lock state",
			zap.String("asset", entry.Asset),
			zap.Error(err))
		return
	}
	if available.Status != models.LockStatusUnlocked {
		fmt.Printf("%s       locked %s, available %s (%s)\n",
			prefix,
			common.FormatSats(available.LockedAmount),
			common.FormatSats(available.AvailableAmount),
			available.Status)
	}
	if available.DriftSuspected {
		fmt.Printf("%s       warning: locked exceeds holding, run reconcile\n", prefix)
	}
}
