package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/http/response"
	"github.com/yungbote/officechat-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	u, token, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": u, "token": token})
}

// POST /api/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	u, token, err := ah.authService.Login(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u, "token": token})
}
