package market

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vikram-agentic/tradex/internal/models"
)

// Quote is a normalized snapshot for one symbol. Source identifies where the
// numbers came from; synthetic quotes are clearly marked so downstream
// consumers can tell a fallback from a live feed.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Volume    int64           `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`

	Change        decimal.Decimal `json:"change,omitempty"`
	ChangePercent decimal.Decimal `json:"change_percent,omitempty"`
	High          decimal.Decimal `json:"high,omitempty"`
	Low           decimal.Decimal `json:"low,omitempty"`
	Open          decimal.Decimal `json:"open,omitempty"`
	Close         decimal.Decimal `json:"close,omitempty"`

	Source string `json:"source"`
}

const (
	SourceAlpaca    = "alpaca"
	SourceStream    = "stream"
	SourceSynthetic = "synthetic"
)

// Gateway returns quotes for a symbol set. Implementations tolerate partial
// failure per symbol: a symbol that cannot be fetched is filled with a
// synthetic quote rather than failing the whole call.
type Gateway interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

var (
	stockSymbols  = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META"}
	cryptoSymbols = []string{"BTCUSD", "ETHUSD"}
)

// SymbolsForMarketType is the symbol universe an agent analyzes per cycle.
func SymbolsForMarketType(marketType string) []string {
	switch strings.ToLower(strings.TrimSpace(marketType)) {
	case models.MarketStocks:
		return append([]string(nil), stockSymbols...)
	case models.MarketCrypto:
		return append([]string(nil), cryptoSymbols...)
	case models.MarketBoth:
		out := append([]string(nil), stockSymbols...)
		return append(out, cryptoSymbols...)
	default:
		return []string{"AAPL", "MSFT", "GOOGL"}
	}
}

func normalizeSymbols(symbols []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
