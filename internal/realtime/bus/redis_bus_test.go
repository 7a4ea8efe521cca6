package bus

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/officechat-backend/internal/platform/logger"
	"github.com/yungbote/officechat-backend/internal/realtime"
)

func newTestBus(t *testing.T) Bus {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	b, err := NewRedisBus(log, rdb, Config{Channel: "chat:test"})
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestRedisBusPublishSubscribe(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	if err := b.Publish(ctx, realtime.MessageDeleted{ID: "m1", DeletedBy: "A"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	raw, err := sub.Receive(rctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(raw) != `{"type":"message_delete","data":{"id":"m1","deletedBy":"A"}}` {
		t.Fatalf("payload: %s", raw)
	}
}

func TestRedisBusSubscribersReleasedOnClose(t *testing.T) {
	b := newTestBus(t)
	ctx := context.Background()

	before, err := b.Subscribers(ctx)
	if err != nil {
		t.Fatalf("Subscribers: %v", err)
	}
	sub, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	during, _ := b.Subscribers(ctx)
	if during != before+1 {
		t.Fatalf("subscribers during: want %d got %d", before+1, during)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		after, _ := b.Subscribers(ctx)
		if after == before {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscription not released: before=%d after=%d", before, after)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := sub.Receive(ctx); err == nil {
		t.Fatalf("Receive after Close should fail")
	}
}

func TestStreamReleasesRedisSubscriptionOnDisconnect(t *testing.T) {
	b := newTestBus(t)
	log, _ := logger.New("test")
	ctx, cancel := context.WithCancel(context.Background())

	s := realtime.NewStream(log, b, realtime.StreamConfig{HeartbeatInterval: time.Hour})
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, &discardFlusher{h: http.Header{}}) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.State() != realtime.StateActive {
		if time.Now().After(deadline) {
			t.Fatalf("stream never became active")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n, _ := b.Subscribers(context.Background()); n != 1 {
		t.Fatalf("subscribers while connected: %d", n)
	}

	cancel()
	<-done
	deadline = time.Now().Add(2 * time.Second)
	for {
		n, _ := b.Subscribers(context.Background())
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscription leaked after disconnect: %d", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type discardFlusher struct{ h http.Header }

func (d *discardFlusher) Header() http.Header         { return d.h }
func (d *discardFlusher) Write(p []byte) (int, error) { return len(p), nil }
func (d *discardFlusher) WriteHeader(int)             {}
func (d *discardFlusher) Flush()                      {}
