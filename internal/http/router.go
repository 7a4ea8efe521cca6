package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/officechat-backend/internal/http/handlers"
	httpMW "github.com/yungbote/officechat-backend/internal/http/middleware"
	"github.com/yungbote/officechat-backend/internal/observability"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	Tracing     bool
	CORSOrigins []string

	AuthHandler         *httpH.AuthHandler
	AuthMiddleware      *httpMW.AuthMiddleware
	RateLimiter         *httpMW.RateLimiter
	UserHandler         *httpH.UserHandler
	ChatHandler         *httpH.ChatHandler
	PresenceHandler     *httpH.PresenceHandler
	AttachmentHandler   *httpH.AttachmentHandler
	NotificationHandler *httpH.NotificationHandler
	RealtimeHandler     *httpH.RealtimeHandler

	HealthHandler *httpH.HealthHandler
}

// streamRoute is excluded from request metrics; streams have their own gauge.
const streamRoute = "/api/chat/stream"

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, streamRoute))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		limited := cfg.RateLimiter.Middleware()

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Chat
		if cfg.ChatHandler != nil {
			protected.GET("/chat", cfg.ChatHandler.List)
			protected.POST("/chat", limited, cfg.ChatHandler.Send)
			protected.POST("/chat/edit", cfg.ChatHandler.Edit)
			protected.POST("/chat/delete", cfg.ChatHandler.Delete)
		}

		// Presence
		if cfg.PresenceHandler != nil {
			protected.GET("/chat/users", cfg.PresenceHandler.ListUsers)
			protected.POST("/chat/status", cfg.PresenceHandler.SetStatus)
			protected.POST("/chat/typing", limited, cfg.PresenceHandler.SetTyping)
		}

		// Attachments
		if cfg.AttachmentHandler != nil {
			protected.POST("/chat/attachments", cfg.AttachmentHandler.Upload)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/chat/stream", cfg.RealtimeHandler.Stream)
		}

		// Notifications
		if cfg.NotificationHandler != nil {
			protected.GET("/notifications", cfg.NotificationHandler.List)
			protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
		}
	}

	return r
}
