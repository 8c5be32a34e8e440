package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vikram-agentic/tradex/internal/market"
	"github.com/vikram-agentic/tradex/internal/models"
)

// PaperBroker simulates execution against the market data gateway: buys fill
// at the ask, sells at the bid. Used when no Alpaca credentials are
// configured so agents can run fully self-contained.
type PaperBroker struct {
	Quotes market.Gateway

	now func() time.Time
}

func NewPaperBroker(quotes market.Gateway) *PaperBroker {
	return &PaperBroker{Quotes: quotes, now: time.Now}
}

func (b *PaperBroker) PlaceOrder(ctx context.Context, order Order) (Fill, error) {
	if b == nil || b.Quotes == nil {
		return Fill{}, &GatewayError{Venue: "paper", Err: fmt.Errorf("no quote source")}
	}
	if !order.Quantity.IsPositive() {
		return Fill{}, &GatewayError{Venue: "paper", Err: fmt.Errorf("non-positive quantity %s", order.Quantity)}
	}

	quotes, err := b.Quotes.GetQuotes(ctx, []string{order.Symbol})
	if err != nil {
		return Fill{}, &GatewayError{Venue: "paper", Err: err}
	}
	q, ok := quotes[order.Symbol]
	if !ok {
		return Fill{}, &GatewayError{Venue: "paper", Err: fmt.Errorf("no quote for %s", order.Symbol)}
	}

	price := q.Price
	switch order.Side {
	case models.SideBuy:
		if q.Ask.IsPositive() {
			price = q.Ask
		}
	case models.SideSell:
		if q.Bid.IsPositive() {
			price = q.Bid
		}
	default:
		return Fill{}, &GatewayError{Venue: "paper", Err: fmt.Errorf("unknown side %q", order.Side)}
	}
	if !price.IsPositive() {
		return Fill{}, &GatewayError{Venue: "paper", Err: fmt.Errorf("no price for %s", order.Symbol)}
	}

	filledAt := time.Now().UTC()
	if b.now != nil {
		filledAt = b.now().UTC()
	}
	return Fill{
		OrderID:    uuid.NewString(),
		FillPrice:  price,
		FilledAt:   filledAt,
		TotalValue: price.Mul(order.Quantity),
	}, nil
}

var _ Broker = (*PaperBroker)(nil)
