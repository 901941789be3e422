package main

import (
	"context"
	"flag"
	"fmt"

	"bitcoin-standard-go/internal/common"
	"bitcoin-standard-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	flag.Parse()

	logger, cleanup := common.InitializeLogger()
	defer cleanup()

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

	refreshed, err := services.Oracle.RefreshAll(ctx)
	if err != nil {
		logger.Fatal("Price refresh failed", zap.Error(err))
	}

	common.PrintHeader("Price refresh", common.DefaultWidth)
	fmt.Printf("Refreshed %d of %d catalog assets.\n", refreshed, len(services.Catalog))

	assets, err := services.DbService.ListAssets(ctx)
	if err != nil {
		logger.Fatal("Failed to list stored prices", zap.Error(err))
	}
	for i, asset := range assets {
		prefix := common.BoxPrefix(i == len(assets)-1)
		fmt.Printf("%s%-6s %s  (as of %s)\n",
			prefix, asset.Symbol,
			common.FormatUsd(asset.PriceUsd),
			asset.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	common.PrintFooter("Done", common.DefaultWidth)
}
