package redis

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

type Config struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NewClient builds the process-wide redis client and pings it once. The caller owns
// the client and must Close it on shutdown.
func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*goredis.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})
	rdb.AddHook(&connLogHook{log: log.With("client", "Redis", "addr", addr)})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("Redis connected", "addr", addr, "db", cfg.DB)
	return rdb, nil
}

// connLogHook logs dial failures and the first successful dial after them. go-redis
// reconnects on its own; this only makes the outage visible.
type connLogHook struct {
	log     *logger.Logger
	failing atomic.Bool
}

func (h *connLogHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.failing.Store(true)
			h.log.Warn("redis dial failed", "error", err)
			return nil, err
		}
		if h.failing.CompareAndSwap(true, false) {
			h.log.Warn("redis connection re-established")
		}
		return conn, nil
	}
}

func (h *connLogHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return next
}

func (h *connLogHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}
