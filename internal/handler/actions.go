package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vikram-agentic/tradex/internal/repository"
)

type ActionHandler struct {
	Repo repository.Repository
}

func (h *ActionHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/agents/:id/actions", h.list)
}

func (h *ActionHandler) list(c *gin.Context) {
	agentID := strings.TrimSpace(c.Param("id"))
	if agentID == "" {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListActionsParams{
		Limit:      limit,
		Offset:     offset,
		AgentID:    &agentID,
		ActionType: strQueryPtr(c, "action_type"),
		OrderBy:    "created_at",
		Asc:        boolPtr(false),
	}
	if v := strings.TrimSpace(c.Query("since")); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			Error(c, http.StatusBadRequest, "since must be RFC3339", nil)
			return
		}
		params.Since = &since
	}
	items, err := h.Repo.ListAgentActions(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
