package market

import (
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"
)

// Base prices for the default universe. Unknown symbols get a price derived
// from the symbol hash so repeated calls stay consistent.
var syntheticBasePrices = map[string]int64{
	"AAPL":   178,
	"MSFT":   380,
	"GOOGL":  140,
	"AMZN":   155,
	"TSLA":   245,
	"NVDA":   495,
	"META":   320,
	"NFLX":   445,
	"AMD":    115,
	"INTC":   45,
	"BTCUSD": 43500,
	"ETHUSD": 2300,
}

// SyntheticQuote builds a deterministic fallback quote. The price oscillates
// within ±1% of the base, keyed on symbol and the current minute, so the same
// symbol asked twice in a minute returns the same quote.
func SyntheticQuote(symbol string, now time.Time) Quote {
	base, ok := syntheticBasePrices[symbol]
	if !ok {
		base = int64(50 + symbolSeed(symbol)%200)
	}
	basePrice := decimal.NewFromInt(base)

	// Offset in [-100, 100] basis points.
	seed := symbolSeed(symbol + now.UTC().Format("200601021504"))
	bps := int64(seed%201) - 100
	change := basePrice.Mul(decimal.NewFromInt(bps)).Div(decimal.NewFromInt(10000))
	price := basePrice.Add(change)

	spread := price.Div(decimal.NewFromInt(1000)) // 0.1%
	half := spread.Div(decimal.NewFromInt(2))

	return Quote{
		Symbol:        symbol,
		Price:         price.Round(2),
		Bid:           price.Sub(half).Round(2),
		Ask:           price.Add(half).Round(2),
		Volume:        int64(seed % 10_000_000),
		Timestamp:     now.UTC(),
		Change:        change.Round(2),
		ChangePercent: decimal.NewFromInt(bps).Div(decimal.NewFromInt(100)),
		High:          price.Mul(decimal.NewFromFloat(1.02)).Round(2),
		Low:           price.Mul(decimal.NewFromFloat(0.98)).Round(2),
		Open:          basePrice,
		Close:         price.Round(2),
		Source:        SourceSynthetic,
	}
}

func symbolSeed(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
