package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vikram-agentic/tradex/internal/market"
	"github.com/vikram-agentic/tradex/internal/models"
)

type fakeQuotes struct {
	quotes map[string]market.Quote
	err    error
}

func (f *fakeQuotes) GetQuotes(_ context.Context, symbols []string) (map[string]market.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

func TestPaperBrokerFillsBuyAtAsk(t *testing.T) {
	quotes := &fakeQuotes{quotes: map[string]market.Quote{
		"AAPL": {
			Symbol: "AAPL",
			Price:  decimal.NewFromFloat(50.0),
			Bid:    decimal.NewFromFloat(49.95),
			Ask:    decimal.NewFromFloat(50.05),
		},
	}}
	b := NewPaperBroker(quotes)
	b.now = func() time.Time { return time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC) }

	fill, err := b.PlaceOrder(context.Background(), Order{
		Symbol: "AAPL", Side: models.SideBuy, Quantity: decimal.NewFromInt(4),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !fill.FillPrice.Equal(decimal.NewFromFloat(50.05)) {
		t.Fatalf("fill price=%s want ask 50.05", fill.FillPrice)
	}
	if !fill.TotalValue.Equal(decimal.NewFromFloat(200.2)) {
		t.Fatalf("total=%s want 200.2", fill.TotalValue)
	}
	if fill.OrderID == "" {
		t.Fatal("empty order id")
	}
}

func TestPaperBrokerFillsSellAtBid(t *testing.T) {
	quotes := &fakeQuotes{quotes: map[string]market.Quote{
		"MSFT": {
			Symbol: "MSFT",
			Price:  decimal.NewFromInt(100),
			Bid:    decimal.NewFromFloat(99.9),
			Ask:    decimal.NewFromFloat(100.1),
		},
	}}
	b := NewPaperBroker(quotes)

	fill, err := b.PlaceOrder(context.Background(), Order{
		Symbol: "MSFT", Side: models.SideSell, Quantity: decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !fill.FillPrice.Equal(decimal.NewFromFloat(99.9)) {
		t.Fatalf("fill price=%s want bid 99.9", fill.FillPrice)
	}
}

func TestPaperBrokerGatewayErrors(t *testing.T) {
	b := NewPaperBroker(&fakeQuotes{err: errors.New("provider down")})
	_, err := b.PlaceOrder(context.Background(), Order{
		Symbol: "AAPL", Side: models.SideBuy, Quantity: decimal.NewFromInt(1),
	})
	var gerr *GatewayError
	if !errors.As(err, &gerr) {
		t.Fatalf("want GatewayError, got %v", err)
	}

	_, err = b.PlaceOrder(context.Background(), Order{
		Symbol: "AAPL", Side: models.SideBuy, Quantity: decimal.Zero,
	})
	if !errors.As(err, &gerr) {
		t.Fatalf("zero quantity: want GatewayError, got %v", err)
	}
}
