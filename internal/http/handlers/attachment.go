package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/http/response"
	"github.com/yungbote/officechat-backend/internal/services"
)

type AttachmentHandler struct {
	attachmentService services.AttachmentService
	maxBytes          int64
}

func NewAttachmentHandler(attachmentService services.AttachmentService, maxBytes int64) *AttachmentHandler {
	if maxBytes <= 0 {
		maxBytes = services.DefaultAttachmentMaxBytes
	}
	return &AttachmentHandler{attachmentService: attachmentService, maxBytes: maxBytes}
}

// POST /api/chat/attachments (multipart field "file")
func (h *AttachmentHandler) Upload(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "unreadable file")
		return
	}
	defer f.Close()

	att, err := h.attachmentService.Upload(
		c.Request.Context(),
		actor,
		fh.Filename,
		fh.Header.Get("Content-Type"),
		fh.Size,
		f,
	)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, att)
}
