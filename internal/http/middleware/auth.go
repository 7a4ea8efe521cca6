package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/http/response"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
	"github.com/yungbote/officechat-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// RequireAuth resolves the session token into an Identity on the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			response.RespondError(c, apierr.Unauthorized("missing or invalid token"))
			return
		}
		id, err := am.authService.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if !apierr.IsCode(err, apierr.CodeUnauthorized) {
				am.log.Warn("session lookup failed", append([]interface{}{"error", err}, ctxutil.LogFields(c.Request.Context())...)...)
			}
			response.RespondError(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// extractTokenFromAll prefers the query param since EventSource cannot send headers.
func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
