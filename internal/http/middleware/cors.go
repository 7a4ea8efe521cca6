package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{
	"http://localhost:80",
	"http://localhost:3000",
	"http://localhost:5174",
	"http://localhost:5173",
	"http://127.0.0.1:80",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5174",
	"http://127.0.0.1:5173",
}

// CORS allows the given origins, or the local dev origins when none are configured.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-Id", "X-Trace-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
