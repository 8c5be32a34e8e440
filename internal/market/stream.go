package market

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/vikram-agentic/tradex/internal/config"
)

// QuoteStream keeps the quote cache warm from the Alpaca market data
// websocket. It is optional; when disabled or disconnected the REST poller
// and synthetic fallback cover every symbol.
type QuoteStream struct {
	Config  config.MarketConfig
	Cache   *QuoteCache
	Symbols []string
	Logger  *zap.Logger
}

type streamAuth struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type streamSubscribe struct {
	Action string   `json:"action"`
	Quotes []string `json:"quotes"`
}

type streamQuote struct {
	Type      string  `json:"T"`
	Symbol    string  `json:"S"`
	BidPrice  float64 `json:"bp"`
	AskPrice  float64 `json:"ap"`
	Timestamp string  `json:"t"`
}

// Run connects, subscribes, and loops reading quote messages until the
// context is cancelled, reconnecting with a capped backoff on failure.
func (s *QuoteStream) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := s.runOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			if s.Logger != nil {
				s.Logger.Warn("quote stream disconnected", zap.Error(err), zap.Duration("backoff", backoff))
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *QuoteStream) runOnce(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, s.Config.Stream.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	conn.SetReadLimit(1 << 20)

	auth, err := json.Marshal(streamAuth{Action: "auth", Key: s.Config.APIKey, Secret: s.Config.APISecret})
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, auth); err != nil {
		return err
	}
	sub, err := json.Marshal(streamSubscribe{Action: "subscribe", Quotes: s.Symbols})
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, sub); err != nil {
		return err
	}

	if s.Logger != nil {
		s.Logger.Info("quote stream connected", zap.Strings("symbols", s.Symbols))
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		s.handle(data)
	}
}

func (s *QuoteStream) handle(data []byte) {
	var msgs []streamQuote
	if err := json.Unmarshal(data, &msgs); err != nil {
		return
	}
	for _, m := range msgs {
		if m.Type != "q" || m.Symbol == "" {
			continue
		}
		bid := decimal.NewFromFloat(m.BidPrice)
		ask := decimal.NewFromFloat(m.AskPrice)
		price := ask
		if price.IsZero() {
			price = bid
		}
		if price.IsZero() {
			continue
		}
		ts := time.Now().UTC()
		if parsed, err := time.Parse(time.RFC3339Nano, m.Timestamp); err == nil {
			ts = parsed
		}
		s.Cache.SetStreamed(Quote{
			Symbol:    m.Symbol,
			Price:     price,
			Bid:       bid,
			Ask:       ask,
			Timestamp: ts,
			Source:    SourceStream,
		})
	}
}
