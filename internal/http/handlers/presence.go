package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/http/response"
	"github.com/yungbote/officechat-backend/internal/services"
)

type PresenceHandler struct {
	presenceService services.PresenceService
}

func NewPresenceHandler(presenceService services.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: presenceService}
}

// GET /api/chat/users
func (h *PresenceHandler) ListUsers(c *gin.Context) {
	users, err := h.presenceService.ListUsers(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, users)
}

// POST /api/chat/status
// body: { "isOnline": true }
func (h *PresenceHandler) SetStatus(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req struct {
		IsOnline *bool `json:"isOnline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IsOnline == nil {
		response.BadRequest(c, "isOnline is required")
		return
	}
	var err error
	if *req.IsOnline {
		err = h.presenceService.SetOnline(c.Request.Context(), actor)
	} else {
		err = h.presenceService.SetOffline(c.Request.Context(), actor)
	}
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c)
}

// POST /api/chat/typing
// body: { "isTyping": true }
func (h *PresenceHandler) SetTyping(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req struct {
		IsTyping *bool `json:"isTyping"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IsTyping == nil {
		response.BadRequest(c, "isTyping is required")
		return
	}
	if err := h.presenceService.SetTyping(c.Request.Context(), actor, *req.IsTyping); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c)
}
