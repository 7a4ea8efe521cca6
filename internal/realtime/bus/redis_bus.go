package bus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/officechat-backend/internal/platform/logger"
	"github.com/yungbote/officechat-backend/internal/realtime"
)

const DefaultChannel = "chat:events"

type Config struct {
	Channel string
	// ClientBuffer sizes the per-subscription receive queue inside go-redis.
	ClientBuffer int
}

type redisBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
	buffer  int

	mu   sync.Mutex
	subs map[*redisSubscription]struct{}
}

func NewRedisBus(log *logger.Logger, rdb goredis.UniversalClient, cfg Config) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = DefaultChannel
	}
	buf := cfg.ClientBuffer
	if buf <= 0 {
		buf = realtime.DefaultClientBuffer
	}
	return &redisBus{
		log:     log.With("service", "RedisChatBus", "channel", ch),
		rdb:     rdb,
		channel: ch,
		buffer:  buf,
		subs:    make(map[*redisSubscription]struct{}),
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, ev realtime.Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis chat bus not initialized")
	}
	raw, err := realtime.Encode(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", ev.Type(), err)
	}
	return nil
}

func (b *redisBus) Subscribe(ctx context.Context) (realtime.Subscription, error) {
	if b == nil || b.rdb == nil {
		return nil, fmt.Errorf("redis chat bus not initialized")
	}
	ps := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	sub := &redisSubscription{
		bus: b,
		ps:  ps,
		ch:  ps.Channel(goredis.WithChannelSize(b.buffer)),
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub, nil
}

func (b *redisBus) Subscribers(ctx context.Context) (int64, error) {
	counts, err := b.rdb.PubSubNumSub(ctx, b.channel).Result()
	if err != nil {
		return 0, fmt.Errorf("redis pubsub numsub: %w", err)
	}
	return counts[b.channel], nil
}

// Close releases every open subscription. The redis client itself is owned by the caller.
func (b *redisBus) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	subs := make([]*redisSubscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()
	for _, s := range subs {
		if err := s.Close(); err != nil {
			b.log.Warn("closing subscription", "error", err)
		}
	}
	return nil
}

func (b *redisBus) forget(s *redisSubscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

type redisSubscription struct {
	bus  *redisBus
	ps   *goredis.PubSub
	ch   <-chan *goredis.Message
	once sync.Once
	err  error
}

func (s *redisSubscription) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case m, ok := <-s.ch:
		if !ok || m == nil {
			return nil, realtime.ErrSubscriptionClosed
		}
		return []byte(m.Payload), nil
	}
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
		s.bus.forget(s)
	})
	return s.err
}
