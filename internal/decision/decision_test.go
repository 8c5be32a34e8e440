package decision

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vikram-agentic/tradex/internal/models"
)

func TestParseWrappedInMarkdown(t *testing.T) {
	text := "Here is my analysis.\n```json\n" +
		`{"decision": "BUY", "symbol": "aapl", "quantity": 10, "reasoning": "breakout", "confidence": 85, "risk_assessment": "Medium"}` +
		"\n```\nGood luck."
	d, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Action != ActionBuy {
		t.Fatalf("action=%q", d.Action)
	}
	if d.Symbol != "AAPL" {
		t.Fatalf("symbol=%q want AAPL", d.Symbol)
	}
	if !d.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("quantity=%s", d.Quantity)
	}
	if d.Confidence != 85 {
		t.Fatalf("confidence=%v", d.Confidence)
	}
	if !d.IsTrade() {
		t.Fatal("expected trade decision")
	}
}

func TestParseHoldWithNulls(t *testing.T) {
	d, err := Parse(`{"decision": "HOLD", "symbol": null, "quantity": null, "reasoning": "nothing to do", "confidence": 55}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Action != ActionHold || d.IsTrade() {
		t.Fatalf("action=%q", d.Action)
	}
	if !d.Quantity.IsZero() {
		t.Fatalf("quantity=%s want 0", d.Quantity)
	}
}

func TestParseQuantityAsString(t *testing.T) {
	d, err := Parse(`{"decision": "sell", "symbol": "MSFT", "quantity": "2.5", "confidence": 90, "reasoning": "take profit"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !d.Quantity.Equal(decimal.NewFromFloat(2.5)) {
		t.Fatalf("quantity=%s", d.Quantity)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no json", "I think we should buy AAPL."},
		{"unknown action", `{"decision": "SHORT", "symbol": "AAPL", "confidence": 80}`},
		{"buy without symbol", `{"decision": "BUY", "symbol": null, "confidence": 80}`},
		{"confidence out of range", `{"decision": "HOLD", "confidence": 140}`},
		{"negative quantity", `{"decision": "BUY", "symbol": "AAPL", "quantity": -3, "confidence": 80}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatal("expected error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("want ParseError, got %T", err)
			}
		})
	}
}

func TestSystemPromptFallsBackToMomentum(t *testing.T) {
	for _, strategy := range []string{
		models.StrategyMomentum, models.StrategyMeanReversion, models.StrategySentiment,
		models.StrategyScalping, models.StrategySwing, models.StrategyArbitrage,
	} {
		if SystemPrompt(strategy) == "" {
			t.Fatalf("empty prompt for %s", strategy)
		}
	}
	if SystemPrompt("made_up") != SystemPrompt(models.StrategyMomentum) {
		t.Fatal("unknown strategy should fall back to momentum")
	}
}

func TestBuildUserPromptIncludesState(t *testing.T) {
	agent := &models.Agent{
		Name:            "alpha",
		Strategy:        models.StrategyMomentum,
		Balance:         decimal.NewFromInt(1000),
		RiskTolerance:   5,
		MaxPositionSize: decimal.NewFromFloat(0.2),
	}
	prompt := buildUserPrompt(Input{
		Agent: agent,
		Positions: []models.Position{
			{Symbol: "AAPL", Quantity: decimal.NewFromInt(4), AvgEntryPrice: decimal.NewFromInt(50)},
		},
		MarketData: map[string]any{"AAPL": map[string]any{"price": 52.1}},
	})
	for _, want := range []string{"alpha", "Max Position Size: 20%", "AAPL", "No recent trades", "JSON format"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}
