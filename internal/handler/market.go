package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vikram-agentic/tradex/internal/market"
)

type MarketHandler struct {
	Quotes market.Gateway
}

func (h *MarketHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/market/quotes", h.quotes)
}

// quotes returns latest quotes for ?symbols=AAPL,MSFT, or for a whole market
// type via ?market_type=stocks.
func (h *MarketHandler) quotes(c *gin.Context) {
	if h.Quotes == nil {
		Error(c, http.StatusServiceUnavailable, "market data unavailable", nil)
		return
	}
	var symbols []string
	if raw := strings.TrimSpace(c.Query("symbols")); raw != "" {
		symbols = strings.Split(raw, ",")
	} else {
		symbols = market.SymbolsForMarketType(c.Query("market_type"))
	}
	quotes, err := h.Quotes.GetQuotes(c.Request.Context(), symbols)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, quotes, nil)
}
