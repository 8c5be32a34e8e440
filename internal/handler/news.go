package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vikram-agentic/tradex/internal/market"
	"github.com/vikram-agentic/tradex/internal/repository"
)

// NewsRefresher pulls fresh headlines into the store on demand.
type NewsRefresher interface {
	Refresh(ctx context.Context, symbols []string) error
}

type NewsHandler struct {
	Repo      repository.Repository
	Refresher NewsRefresher
}

func (h *NewsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/news")
	g.GET("", h.list)
	g.POST("/refresh", h.refresh)
}

func (h *NewsHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListNewsParams{
		Limit:   limit,
		Offset:  offset,
		Symbol:  strQueryPtr(c, "symbol"),
		Keyword: strQueryPtr(c, "keyword"),
	}
	if v := strings.TrimSpace(c.Query("since")); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			Error(c, http.StatusBadRequest, "since must be RFC3339", nil)
			return
		}
		params.Since = &since
	}
	items, err := h.Repo.ListNewsArticles(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *NewsHandler) refresh(c *gin.Context) {
	if h.Refresher == nil {
		Error(c, http.StatusServiceUnavailable, "news refresher unavailable", nil)
		return
	}
	symbols := market.SymbolsForMarketType(c.Query("market_type"))
	if raw := strings.TrimSpace(c.Query("symbols")); raw != "" {
		symbols = strings.Split(raw, ",")
	}
	if err := h.Refresher.Refresh(c.Request.Context(), symbols); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"refreshed": true}, nil)
}
