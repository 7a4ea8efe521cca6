package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/observability"
)

// Metrics records request count, latency and in-flight gauge per matched route. Routes in
// untracked are left out entirely; long-lived event streams are measured by the stream
// gauge instead and would otherwise pin the in-flight gauge and skew latency buckets.
func Metrics(m *observability.Metrics, untracked ...string) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skip := make(map[string]struct{}, len(untracked))
	for _, route := range untracked {
		skip[route] = struct{}{}
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skip[route]; ok && route != "" {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
