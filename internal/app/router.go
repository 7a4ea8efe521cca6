package app

import (
	"github.com/yungbote/officechat-backend/internal/http"
	"github.com/yungbote/officechat-backend/internal/observability"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	log.Info("Wiring router...")
	return http.NewServer(http.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		ServiceName:         cfg.ServiceName,
		Tracing:             cfg.Tracing.Enabled,
		CORSOrigins:         cfg.CORSOrigins,
		HealthHandler:       handlers.Health,
		AuthHandler:         handlers.Auth,
		AuthMiddleware:      middleware.Auth,
		RateLimiter:         middleware.RateLimit,
		UserHandler:         handlers.User,
		ChatHandler:         handlers.Chat,
		PresenceHandler:     handlers.Presence,
		AttachmentHandler:   handlers.Attachment,
		NotificationHandler: handlers.Notification,
		RealtimeHandler:     handlers.Realtime,
	})
}
