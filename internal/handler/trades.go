package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vikram-agentic/tradex/internal/repository"
)

type TradeHandler struct {
	Repo repository.Repository
}

func (h *TradeHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/trades")
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *TradeHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListTradesParams{
		Limit:   limit,
		Offset:  offset,
		AgentID: strQueryPtr(c, "agent_id"),
		UserID:  strQueryPtr(c, "user_id"),
		Symbol:  strQueryPtr(c, "symbol"),
		Status:  strQueryPtr(c, "status"),
		OrderBy: "created_at",
		Asc:     boolPtr(false),
	}
	items, err := h.Repo.ListTrades(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountTrades(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *TradeHandler) get(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetTradeByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "trade not found", nil)
		return
	}
	Ok(c, item, nil)
}
