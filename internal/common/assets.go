package common

import (
	"fmt"
	"os"
	"path/filepath"

	"bitcoin-standard-go/internal/models"

	"gopkg.in/yaml.v2"
)

type assetsFile struct {
	Assets []models.AssetConfig `yaml:"assets"`
}

// LoadAssetCatalog reads the tradeable-asset catalog from a yaml file.
// BTC must be present: it is the settlement side of every pair.
func LoadAssetCatalog(path string) ([]models.AssetConfig, error) {
	var assetsPath string
	if filepath.IsAbs(path) {
		assetsPath = path
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		assetsPath = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(assetsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}

	var file assetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", path, err)
	}

	hasBitcoin := false
	for i, asset := range file.Assets {
		if asset.Symbol == "" {
			return nil, fmt.Errorf("asset at index %d missing symbol", i)
		}
		switch asset.Kind {
		case "crypto":
			if asset.CoingeckoId == "" {
				return nil, fmt.Errorf("crypto asset %s missing coingecko_id", asset.Symbol)
			}
		case "stock", "commodity":
			if asset.QuoteSymbol == "" {
				return nil, fmt.Errorf("asset %s missing quote_symbol", asset.Symbol)
			}
		default:
			return nil, fmt.Errorf("asset %s has unknown kind %q", asset.Symbol, asset.Kind)
		}
		if asset.Symbol == models.BitcoinSymbol {
			hasBitcoin = true
		}
	}
	if !hasBitcoin {
		return nil, fmt.Errorf("asset catalog must include %s", models.BitcoinSymbol)
	}

	return file.Assets, nil
}
