package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/domain/chat"
	"github.com/yungbote/officechat-backend/internal/http/response"
	"github.com/yungbote/officechat-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// POST /api/chat
func (h *ChatHandler) Send(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req services.SendMessageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	msg, err := h.chatService.Append(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, msg)
}

// GET /api/chat
func (h *ChatHandler) List(c *gin.Context) {
	msgs, err := h.chatService.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if msgs == nil {
		msgs = []*chat.ChatMessage{}
	}
	response.RespondOK(c, msgs)
}

// POST /api/chat/edit
// body: { "messageId": "...", "newText": "..." }
func (h *ChatHandler) Edit(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req struct {
		MessageID string `json:"messageId"`
		NewText   string `json:"newText"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if _, err := h.chatService.Edit(c.Request.Context(), actor, req.MessageID, req.NewText); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c)
}

// POST /api/chat/delete
// body: { "messageId": "..." }
func (h *ChatHandler) Delete(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req struct {
		MessageID string `json:"messageId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.chatService.Delete(c.Request.Context(), actor, req.MessageID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c)
}
