package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"bitcoin-standard-go/internal/common"
	"bitcoin-standard-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "email of the user to report on")
	asset := flag.String("asset", "", "asset symbol (e.g. AMZN)")
	flag.Parse()

	logger, cleanup := common.InitializeLogger()
	defer cleanup()

	if *email == "" || *asset == "" {
		logger.Fatal("Usage: lots -email <email> -asset <symbol>")
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

	symbol := strings.ToUpper(*asset)
	lots, err := services.Portfolio.GetLotHistory(ctx, user.Id, symbol)
	if err != nil {
		logger.Fatal("Failed to get lot history", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("%s lots for %s", symbol, user.Email), common.DefaultWidth)

	if len(lots) == 0 {
		fmt.Println("No lots.")
	}

	var lockedCount int
	for i, view := range lots {
		prefix := common.BoxPrefix(i == len(lots)-1)
		state := "unlocked"
		if view.IsLocked {
			state = fmt.Sprintf("locked until %s", view.UnlockAt.Format("2006-01-02 15:04:05 MST"))
			lockedCount++
		}
		fmt.Printf("%s%s  %s %s for %s BTC  (%s)\n",
			prefix,
			view.Lot.CreatedAt.Format("2006-01-02 15:04"),
			common.FormatSats(view.Lot.Amount), symbol,
			common.FormatSats(view.Lot.BtcSpent),
			state)
		if view.HasMarketData {
			fmt.Printf("%s       cost %s, now %s, P&L %s\n",
				prefix,
				common.FormatUsd(view.CostBasisUsd),
				common.FormatUsd(view.CurrentValueUsd),
				common.FormatUsd(view.UnrealizedPnlUsd))
		}
	}

	fmt.Println()
	fmt.Printf("%d lots, %d locked\n", len(lots), lockedCount)
	common.PrintFooter("Done", common.DefaultWidth)
}
