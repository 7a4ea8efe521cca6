package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/officechat-backend/internal/domain/notification"
	"github.com/yungbote/officechat-backend/internal/http/response"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	rows, err := h.notificationService.List(c.Request.Context(), actor)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if rows == nil {
		rows = []*notification.Notification{}
	}
	response.RespondOK(c, rows)
}

// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apierr.NotFound("notification not found"))
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), actor, id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c)
}
