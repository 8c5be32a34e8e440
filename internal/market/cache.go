package market

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// QuoteCache is a short-TTL cache in front of the data API, shared between
// the REST poller and the websocket stream.
type QuoteCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewQuoteCache(ttl time.Duration) (*QuoteCache, error) {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &QuoteCache{cache: c, ttl: ttl}, nil
}

func (qc *QuoteCache) Get(symbol string) (Quote, bool) {
	if qc == nil || qc.cache == nil {
		return Quote{}, false
	}
	raw, ok := qc.cache.Get(symbol)
	if !ok {
		return Quote{}, false
	}
	q, ok := raw.(Quote)
	return q, ok
}

func (qc *QuoteCache) Set(q Quote) {
	if qc == nil || qc.cache == nil {
		return
	}
	qc.cache.SetWithTTL(q.Symbol, q, 1, qc.ttl)
}

// SetStreamed stores a quote from the websocket stream with a longer TTL;
// streamed data stays valid until the next update arrives.
func (qc *QuoteCache) SetStreamed(q Quote) {
	if qc == nil || qc.cache == nil {
		return
	}
	qc.cache.SetWithTTL(q.Symbol, q, 1, 10*qc.ttl)
}
