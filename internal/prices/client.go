package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"bitcoin-standard-go/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/net/http2"
)

// Client fetches spot prices from the upstream market-data APIs: CoinGecko
// for crypto assets, the Yahoo Finance quote endpoint for everything else.
type Client struct {
	httpClient    http.Client
	coingeckoBase string
	quoteBase     string
}

func NewClient(cfg models.OracleConfig) (*Client, error) {
	httpClient, err := createCustomHttpClient(cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}
	return &Client{
		httpClient:    httpClient,
		coingeckoBase: cfg.CoingeckoBaseURL,
		quoteBase:     cfg.QuoteBaseURL,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// FetchPrice retrieves the current USD price for one catalog asset.
func (c *Client) FetchPrice(ctx context.Context, asset models.AssetConfig) (decimal.Decimal, error) {
	if asset.Kind == "crypto" {
		return c.fetchCoingecko(ctx, asset.CoingeckoId)
	}
	return c.fetchQuote(ctx, asset.QuoteSymbol)
}

func (c *Client) fetchCoingecko(ctx context.Context, id string) (decimal.Decimal, error) {
	if id == "" {
		return decimal.Zero, fmt.Errorf("crypto asset missing coingecko_id")
	}

	endpoint := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd",
		c.coingeckoBase, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to build coingecko request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("coingecko request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	// Response shape: {"bitcoin":{"usd":109235.12}}
	var body map[string]map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("unable to decode coingecko response: %w", err)
	}
	usd, ok := body[id]["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("coingecko response missing usd price for %s", id)
	}
	price, err := decimal.NewFromString(usd.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse coingecko price %q: %w", usd.String(), err)
	}
	return price, nil
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string      `json:"symbol"`
			RegularMarketPrice json.Number `json:"regularMarketPrice"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

func (c *Client) fetchQuote(ctx context.Context, ticker string) (decimal.Decimal, error) {
	if ticker == "" {
		return decimal.Zero, fmt.Errorf("asset missing quote_symbol")
	}

	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s",
		c.quoteBase, url.QueryEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to build quote request: %w", err)
	}
	req.Header.Set("User-Agent", "bitcoin-standard-go/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quote API returned status %d", resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("unable to decode quote response: %w", err)
	}
	for _, result := range body.QuoteResponse.Result {
		if result.Symbol == ticker {
			price, err := decimal.NewFromString(result.RegularMarketPrice.String())
			if err != nil {
				return decimal.Zero, fmt.Errorf("unable to parse quote price %q: %w",
					result.RegularMarketPrice.String(), err)
			}
			return price, nil
		}
	}
	return decimal.Zero, fmt.Errorf("quote response missing ticker %s", ticker)
}
