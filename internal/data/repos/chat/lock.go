package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// KeyedLock is a redis mutex keyed by name. The TTL bounds how long a crashed holder
// can block others.
type KeyedLock struct {
	rdb   goredis.UniversalClient
	log   *logger.Logger
	ttl   time.Duration
	wait  time.Duration
	retry time.Duration
}

func NewKeyedLock(rdb goredis.UniversalClient, baseLog *logger.Logger, ttl, wait time.Duration) *KeyedLock {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	if baseLog == nil {
		baseLog = logger.NewNop()
	}
	return &KeyedLock{
		rdb:   rdb,
		log:   baseLog.With("component", "KeyedLock"),
		ttl:   ttl,
		wait:  wait,
		retry: 25 * time.Millisecond,
	}
}

// Do runs fn while holding the lock for key.
func (l *KeyedLock) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()
	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}
	defer l.release(ctx, key, token)
	return fn(ctx)
}

func (l *KeyedLock) acquire(ctx context.Context, key, token string) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("acquire lock %s: %w", key, ErrLockTimeout)
		case <-ticker.C:
		}
	}
}

func (l *KeyedLock) release(ctx context.Context, key, token string) {
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	n, err := releaseScript.Run(relCtx, l.rdb, []string{key}, token).Int64()
	if err != nil {
		// The key stays held until its TTL runs out.
		l.log.Warn("lock release failed", "key", key, "ttl", l.ttl, "error", err)
		return
	}
	if n == 0 {
		l.log.Warn("lock expired before release", "key", key, "ttl", l.ttl)
	}
}
