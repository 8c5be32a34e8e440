package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a market order request derived from a validated decision.
type Order struct {
	Symbol   string
	Side     string // buy or sell
	Quantity decimal.Decimal
}

// Fill is the execution result. FillPrice is the price the order cleared at:
// the ask for buys, the bid for sells.
type Fill struct {
	OrderID    string
	FillPrice  decimal.Decimal
	FilledAt   time.Time
	TotalValue decimal.Decimal
}

// Broker executes orders. Implementations return a GatewayError for upstream
// failures so the orchestrator can count them against the agent's error
// budget.
type Broker interface {
	PlaceOrder(ctx context.Context, order Order) (Fill, error)
}

// GatewayError marks a failure talking to the execution venue.
type GatewayError struct {
	Venue string
	Err   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("broker %s: %v", e.Venue, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
