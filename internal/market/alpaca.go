package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vikram-agentic/tradex/internal/config"
)

// AlpacaClient fetches latest quotes from the Alpaca data API. Calls are rate
// limited client-side; the free data tier rejects bursts.
type AlpacaClient struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

type alpacaQuoteResponse struct {
	Symbol string `json:"symbol"`
	Quote  struct {
		AskPrice  float64 `json:"ap"`
		AskSize   int64   `json:"as"`
		BidPrice  float64 `json:"bp"`
		BidSize   int64   `json:"bs"`
		Timestamp string  `json:"t"`
	} `json:"quote"`
}

func NewAlpacaClient(cfg config.MarketConfig, logger *zap.Logger) *AlpacaClient {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.DataBaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("APCA-API-KEY-ID", cfg.APIKey)
	client.SetHeader("APCA-API-SECRET-KEY", cfg.APISecret)

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 3
	}
	return &AlpacaClient{
		http:    client,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		logger:  logger,
	}
}

func (c *AlpacaClient) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	if c == nil || c.http == nil {
		return Quote{}, fmt.Errorf("alpaca client not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Quote{}, err
	}

	var out alpacaQuoteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v2/stocks/" + symbol + "/quotes/latest")
	if err != nil {
		return Quote{}, err
	}
	if resp.IsError() {
		return Quote{}, fmt.Errorf("alpaca quote %s: status %d", symbol, resp.StatusCode())
	}

	ask := decimal.NewFromFloat(out.Quote.AskPrice)
	bid := decimal.NewFromFloat(out.Quote.BidPrice)
	price := ask
	if price.IsZero() {
		price = bid
	}
	if price.IsZero() {
		return Quote{}, fmt.Errorf("alpaca quote %s: no price", symbol)
	}

	ts := time.Now().UTC()
	if parsed, perr := time.Parse(time.RFC3339Nano, out.Quote.Timestamp); perr == nil {
		ts = parsed
	}
	return Quote{
		Symbol:    symbol,
		Price:     price,
		Bid:       bid,
		Ask:       ask,
		Volume:    out.Quote.AskSize,
		Timestamp: ts,
		Source:    SourceAlpaca,
	}, nil
}
