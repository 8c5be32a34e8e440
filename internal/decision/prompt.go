package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// buildUserPrompt assembles the per-cycle context block: agent state, open
// positions, recent trades, quotes, and headlines, followed by the response
// contract.
func buildUserPrompt(in Input) string {
	agent := in.Agent
	var b strings.Builder

	fmt.Fprintf(&b, "AGENT STATUS:\n")
	fmt.Fprintf(&b, "- Name: %s\n", agent.Name)
	fmt.Fprintf(&b, "- Strategy: %s\n", agent.Strategy)
	fmt.Fprintf(&b, "- Current Balance: $%s\n", agent.Balance)
	fmt.Fprintf(&b, "- Risk Tolerance: %d/10\n", agent.RiskTolerance)
	fmt.Fprintf(&b, "- Max Position Size: %s%%\n", agent.MaxPositionSize.Mul(hundred).StringFixed(0))
	fmt.Fprintf(&b, "- Total Trades: %d\n", agent.TotalTrades)
	fmt.Fprintf(&b, "- Winning Trades: %d\n", agent.WinningTrades)
	fmt.Fprintf(&b, "- Total Profit: $%s\n\n", agent.TotalProfit)

	b.WriteString("CURRENT POSITIONS:\n")
	if len(in.Positions) == 0 {
		b.WriteString("- No open positions\n")
	}
	for _, p := range in.Positions {
		fmt.Fprintf(&b, "- %s: %s shares @ $%s (Current: $%s)\n",
			p.Symbol, p.Quantity, p.AvgEntryPrice, p.CurrentPrice)
	}
	b.WriteString("\nRECENT TRADES:\n")
	if len(in.RecentTrades) == 0 {
		b.WriteString("- No recent trades\n")
	}
	for _, t := range in.RecentTrades {
		reasoning := t.Reasoning
		if reasoning == "" {
			reasoning = "No reasoning"
		}
		fmt.Fprintf(&b, "- %s %s %s @ $%s - %s - %s\n",
			strings.ToUpper(t.TradeType), t.Symbol, t.Quantity, t.Price, t.Status, reasoning)
	}

	fmt.Fprintf(&b, "\nMARKET DATA:\n%s\n", asJSON(in.MarketData))
	fmt.Fprintf(&b, "\nNEWS & SENTIMENT:\n%s\n", asJSON(in.NewsData))

	b.WriteString(`
Based on your strategy and the above information, make a trading decision. Respond in JSON format:
{
  "decision": "BUY" | "SELL" | "HOLD",
  "symbol": "AAPL" (or null for HOLD),
  "quantity": 10 (or null for HOLD),
  "reasoning": "Clear explanation of your decision",
  "confidence": 85 (0-100),
  "risk_assessment": "Low" | "Medium" | "High"
}

IMPORTANT:
- Only trade if confidence > 70%
- Respect the max position size limit
- Never exceed available balance
- Consider transaction fees
- Always provide clear reasoning
`)
	return b.String()
}

func asJSON(v any) string {
	if v == nil {
		return "null"
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(data)
}
