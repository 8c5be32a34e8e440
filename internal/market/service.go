package market

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Service is the market data gateway handed to the orchestrator. It layers a
// short-TTL cache over the Alpaca client and fills every symbol it cannot
// fetch with a synthetic quote, so a partial provider outage never aborts a
// trading cycle.
type Service struct {
	Client *AlpacaClient
	Cache  *QuoteCache
	Logger *zap.Logger

	now func() time.Time
}

func NewService(client *AlpacaClient, cache *QuoteCache, logger *zap.Logger) *Service {
	return &Service{Client: client, Cache: cache, Logger: logger, now: time.Now}
}

func (s *Service) GetQuotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	symbols = normalizeSymbols(symbols)
	out := make(map[string]Quote, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	now := s.clock()
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if q, ok := s.Cache.Get(symbol); ok {
			out[symbol] = q
			continue
		}
		if s.Client != nil {
			q, err := s.Client.GetQuote(ctx, symbol)
			if err == nil {
				s.Cache.Set(q)
				out[symbol] = q
				continue
			}
			if s.Logger != nil {
				s.Logger.Debug("quote fetch failed, using synthetic",
					zap.String("symbol", symbol), zap.Error(err))
			}
		}
		q := SyntheticQuote(symbol, now)
		s.Cache.Set(q)
		out[symbol] = q
	}
	return out, nil
}

func (s *Service) clock() time.Time {
	if s != nil && s.now != nil {
		return s.now()
	}
	return time.Now()
}
