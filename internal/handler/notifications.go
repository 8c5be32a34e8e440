package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vikram-agentic/tradex/internal/repository"
)

type NotificationHandler struct {
	Repo repository.Repository
}

func (h *NotificationHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/notifications")
	g.GET("", h.list)
	g.POST("/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListNotificationsParams{
		Limit:  limit,
		Offset: offset,
		UserID: strQueryPtr(c, "user_id"),
		Unread: boolQueryPtr(c, "unread"),
	}
	items, err := h.Repo.ListNotifications(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	if err := h.Repo.MarkNotificationRead(c.Request.Context(), id); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"read": id}, nil)
}
