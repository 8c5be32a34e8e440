package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vikram-agentic/tradex/internal/models"
)

// Decision actions.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
	ActionHold = "hold"
)

// Decision is the model's structured verdict for one trading cycle.
// Quantity may be zero for buy/sell, in which case the orchestrator derives
// it from the agent's balance and position size limit.
type Decision struct {
	Action         string          `json:"decision"`
	Symbol         string          `json:"symbol"`
	Quantity       decimal.Decimal `json:"quantity"`
	Confidence     float64         `json:"confidence"`
	Reasoning      string          `json:"reasoning"`
	RiskAssessment string          `json:"risk_assessment"`
}

// IsTrade reports whether the decision calls for an order.
func (d Decision) IsTrade() bool {
	return d.Action == ActionBuy || d.Action == ActionSell
}

// Engine produces a Decision for an agent given its current context.
type Engine interface {
	Decide(ctx context.Context, input Input) (Decision, error)
}

// Input is everything the engine sees about the agent this cycle.
type Input struct {
	Agent        *models.Agent
	Positions    []models.Position
	RecentTrades []models.Trade
	MarketData   any
	NewsData     any
}

// ParseError wraps a model response that could not be turned into a valid
// Decision. The raw text is kept for the audit log.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse decision: %s", e.Reason)
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// rawDecision accepts the looser shapes the model actually produces: symbol
// and quantity may be null for holds, quantity may arrive as string or number.
type rawDecision struct {
	Decision       string          `json:"decision"`
	Symbol         *string         `json:"symbol"`
	Quantity       json.RawMessage `json:"quantity"`
	Confidence     float64         `json:"confidence"`
	Reasoning      string          `json:"reasoning"`
	RiskAssessment string          `json:"risk_assessment"`
}

// Parse extracts and validates a Decision from model output. The model often
// wraps the JSON in prose or markdown fences, so the first {...} span is taken.
func Parse(text string) (Decision, error) {
	match := jsonObjectRe.FindString(text)
	if match == "" {
		return Decision{}, &ParseError{Raw: text, Reason: "no JSON object in response"}
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return Decision{}, &ParseError{Raw: text, Reason: err.Error()}
	}

	d := Decision{
		Action:         strings.ToLower(strings.TrimSpace(raw.Decision)),
		Confidence:     raw.Confidence,
		Reasoning:      strings.TrimSpace(raw.Reasoning),
		RiskAssessment: strings.TrimSpace(raw.RiskAssessment),
	}
	if raw.Symbol != nil {
		d.Symbol = strings.ToUpper(strings.TrimSpace(*raw.Symbol))
	}
	qty, err := parseQuantity(raw.Quantity)
	if err != nil {
		return Decision{}, &ParseError{Raw: text, Reason: err.Error()}
	}
	d.Quantity = qty

	if err := validate(d); err != nil {
		return Decision{}, &ParseError{Raw: text, Reason: err.Error()}
	}
	return d, nil
}

func parseQuantity(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, nil
	}
	s = strings.Trim(s, `"`)
	qty, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quantity %q: %w", s, err)
	}
	return qty, nil
}

func validate(d Decision) error {
	switch d.Action {
	case ActionBuy, ActionSell:
		if d.Symbol == "" {
			return fmt.Errorf("%s decision without symbol", d.Action)
		}
	case ActionHold:
	default:
		return fmt.Errorf("unknown decision %q", d.Action)
	}
	if d.Confidence < 0 || d.Confidence > 100 {
		return fmt.Errorf("confidence %v out of range", d.Confidence)
	}
	if d.Quantity.IsNegative() {
		return fmt.Errorf("negative quantity %s", d.Quantity)
	}
	return nil
}
