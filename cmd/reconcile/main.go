package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitcoin-standard-go/internal/common"
	"bitcoin-standard-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "email of the user to reconcile")
	dryRun := flag.Bool("dry-run", false, "report drift without repairing holdings")
	flag.Parse()

	logger, cleanup := common.InitializeLogger()
	defer cleanup()

	if *email == "" {
		logger.Fatal("Usage: reconcile -email <email> [-dry-run]")
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

	drift, err := services.Portfolio.DetectDrift(ctx, user.Id)
	if err != nil {
		logger.Fatal("Failed to detect drift", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("Reconciliation for %s", user.Email), common.DefaultWidth)

	if len(drift) == 0 {
		fmt.Println("Holdings match the trade history. Nothing to repair.")
		common.PrintFooter("Done", common.DefaultWidth)
		return
	}

	fmt.Printf("%d assets drifted:\n", len(drift))
	for i, entry := range drift {
		prefix := common.BoxPrefix(i == len(drift)-1)
		fmt.Printf("%s%-6s live %s, replayed %s\n",
			prefix, entry.Asset,
			common.FormatSats(entry.Live),
			common.FormatSats(entry.Replayed))
	}

	if *dryRun {
		fmt.Println("\nDry run: holdings left untouched.")
		common.PrintFooter("Done", common.DefaultWidth)
		return
	}

	holdings, err := services.Portfolio.ReconcileHoldings(ctx, user.Id)
	if err != nil {
		logger.Error("Reconciliation failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Println("\nHoldings rebuilt from trade history:")
	for i, holding := range holdings {
		prefix := common.BoxPrefix(i == len(holdings)-1)
		fmt.Printf("%s%-6s %s\n", prefix, holding.Asset, common.FormatSats(holding.Amount))
	}
	common.PrintFooter("Done", common.DefaultWidth)
}
