package app

import (
	httpMW "github.com/yungbote/officechat-backend/internal/http/middleware"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.RateLimiter
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, services.Auth),
		RateLimit: httpMW.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}
