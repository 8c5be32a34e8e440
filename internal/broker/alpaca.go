package broker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vikram-agentic/tradex/internal/config"
	"github.com/vikram-agentic/tradex/internal/models"
)

// AlpacaBroker submits market orders to the Alpaca trading API. The paper
// and live endpoints share the same wire format; which one is used follows
// the agent's trading mode.
type AlpacaBroker struct {
	http   *resty.Client
	quotes quoteProvider
	logger *zap.Logger
}

// quoteProvider supplies the quote used to price the fill; Alpaca
// acknowledges market orders before reporting a fill price.
type quoteProvider interface {
	Quote(ctx context.Context, symbol string) (bid, ask decimal.Decimal, err error)
}

type alpacaOrderRequest struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
}

type alpacaOrderResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	FilledAvgPrice string `json:"filled_avg_price"`
}

func NewAlpacaBroker(cfg config.BrokerConfig, tradingMode string, quotes quoteProvider, logger *zap.Logger) *AlpacaBroker {
	baseURL := cfg.PaperBaseURL
	if tradingMode == models.TradingModeLive {
		baseURL = cfg.LiveBaseURL
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("APCA-API-KEY-ID", cfg.APIKey)
	client.SetHeader("APCA-API-SECRET-KEY", cfg.APISecret)
	return &AlpacaBroker{http: client, quotes: quotes, logger: logger}
}

func (b *AlpacaBroker) PlaceOrder(ctx context.Context, order Order) (Fill, error) {
	if b == nil || b.http == nil {
		return Fill{}, &GatewayError{Venue: "alpaca", Err: fmt.Errorf("not configured")}
	}

	var out alpacaOrderResponse
	resp, err := b.http.R().
		SetContext(ctx).
		SetBody(alpacaOrderRequest{
			Symbol:      order.Symbol,
			Qty:         order.Quantity.String(),
			Side:        order.Side,
			Type:        "market",
			TimeInForce: "day",
		}).
		SetResult(&out).
		Post("/v2/orders")
	if err != nil {
		return Fill{}, &GatewayError{Venue: "alpaca", Err: err}
	}
	if resp.IsError() {
		return Fill{}, &GatewayError{Venue: "alpaca", Err: fmt.Errorf("order %s %s: status %d", order.Side, order.Symbol, resp.StatusCode())}
	}

	fill := Fill{OrderID: out.ID, FilledAt: time.Now().UTC()}
	if out.FilledAvgPrice != "" {
		if price, perr := decimal.NewFromString(out.FilledAvgPrice); perr == nil && price.IsPositive() {
			fill.FillPrice = price
		}
	}
	if fill.FillPrice.IsZero() && b.quotes != nil {
		bid, ask, qerr := b.quotes.Quote(ctx, order.Symbol)
		if qerr != nil {
			return Fill{}, &GatewayError{Venue: "alpaca", Err: qerr}
		}
		if order.Side == models.SideBuy {
			fill.FillPrice = ask
		} else {
			fill.FillPrice = bid
		}
	}
	if fill.FillPrice.IsZero() {
		return Fill{}, &GatewayError{Venue: "alpaca", Err: fmt.Errorf("order %s: no fill price", out.ID)}
	}
	fill.TotalValue = fill.FillPrice.Mul(order.Quantity)

	if b.logger != nil {
		b.logger.Info("order placed",
			zap.String("order_id", out.ID),
			zap.String("symbol", order.Symbol),
			zap.String("side", order.Side),
			zap.String("qty", order.Quantity.String()),
			zap.String("fill_price", fill.FillPrice.String()))
	}
	return fill, nil
}
