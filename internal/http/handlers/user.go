package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/http/response"
	"github.com/yungbote/officechat-backend/internal/services"
)

type UserHandler struct {
	authService services.AuthService
}

func NewUserHandler(authService services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	me, err := uh.authService.Me(c.Request.Context(), actor)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, me)
}
