package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yungbote/officechat-backend/internal/http/response"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per authenticated user, or per client IP when the
// request is anonymous.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		entries: map[string]*limiterEntry{},
		now:     time.Now,
	}
}

// Middleware is a no-op when the limiter is nil or rps is not positive.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	if rl == nil || rl.limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id, ok := ctxutil.GetIdentity(c.Request.Context()); ok {
			key = "user:" + id.UserID.String()
		}
		if !rl.allow(key) {
			response.RespondError(c, apierr.RateLimited())
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > limiterIdleTTL {
		for k, e := range rl.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(rl.entries, k)
			}
		}
		rl.lastSweep = now
	}

	e, ok := rl.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}
