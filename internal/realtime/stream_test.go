package realtime

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

// flushRecorder is a goroutine-safe ResponseWriter that implements http.Flusher.
type flushRecorder struct {
	mu      sync.Mutex
	header  http.Header
	status  int
	body    bytes.Buffer
	flushes int
}

func newFlushRecorder() *flushRecorder { return &flushRecorder{header: http.Header{}} }

func (r *flushRecorder) Header() http.Header { return r.header }

func (r *flushRecorder) WriteHeader(status int) {
	r.mu.Lock()
	r.status = status
	r.mu.Unlock()
}

func (r *flushRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *flushRecorder) Flush() {
	r.mu.Lock()
	r.flushes++
	r.mu.Unlock()
}

func (r *flushRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

type fakeSubscription struct {
	ch     chan []byte
	closed chan struct{}
	once   sync.Once
}

func (s *fakeSubscription) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, ErrSubscriptionClosed
	case raw := <-s.ch:
		return raw, nil
	}
}

func (s *fakeSubscription) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeSubscriber struct {
	mu   sync.Mutex
	err  error
	subs []*fakeSubscription
}

func (f *fakeSubscriber) Subscribe(ctx context.Context) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSubscription{ch: make(chan []byte, 16), closed: make(chan struct{})}
	f.subs = append(f.subs, s)
	return s, nil
}

func (f *fakeSubscriber) last() *fakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestStreamForwardsAndHeartbeats(t *testing.T) {
	src := &fakeSubscriber{}
	s := NewStream(mustTestLogger(t), src, StreamConfig{HeartbeatInterval: 20 * time.Millisecond})
	w := newFlushRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, w) }()

	waitFor(t, time.Second, func() bool { return s.State() == StateActive })

	raw, _ := Encode(TypingIndicator{UserID: "u", Name: "A", Role: "ADMIN", IsTyping: true})
	src.last().ch <- raw
	src.last().ch <- []byte(`{"type":"bogus"}`)

	waitFor(t, time.Second, func() bool {
		body := w.String()
		return strings.Contains(body, "data: "+string(raw)+"\n\n") &&
			strings.Count(body, `data: {"type":"heartbeat"}`+"\n\n") >= 2
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Serve did not return after cancel")
	}

	if s.State() != StateClosed {
		t.Fatalf("state: want closed got %s", s.State())
	}
	select {
	case <-src.last().closed:
	default:
		t.Fatalf("subscription must be closed on disconnect")
	}
	if strings.Contains(w.String(), "bogus") {
		t.Fatalf("unknown event type must not be forwarded")
	}
	if got := w.header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type: %q", got)
	}
	if got := w.header.Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("cache control: %q", got)
	}
}

func TestStreamSubscribeFailureNeverActivates(t *testing.T) {
	src := &fakeSubscriber{err: errors.New("redis down")}
	s := NewStream(mustTestLogger(t), src, StreamConfig{})
	w := newFlushRecorder()

	err := s.Serve(context.Background(), w)
	if err == nil {
		t.Fatalf("expected subscribe error")
	}
	if s.State() != StateClosed {
		t.Fatalf("state: want closed got %s", s.State())
	}
	if w.status != 0 || w.String() != "" {
		t.Fatalf("nothing should be written on subscribe failure")
	}
}

func TestStreamEndsWhenSubscriptionCloses(t *testing.T) {
	src := &fakeSubscriber{}
	s := NewStream(mustTestLogger(t), src, StreamConfig{HeartbeatInterval: time.Hour})
	w := newFlushRecorder()

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background(), w) }()
	waitFor(t, time.Second, func() bool { return s.State() == StateActive })

	_ = src.last().Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrSubscriptionClosed) {
			t.Fatalf("expected ErrSubscriptionClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Serve did not return after subscription closed")
	}
}

func TestStreamDropsWhenBufferFull(t *testing.T) {
	src := &fakeSubscriber{}
	s := NewStream(mustTestLogger(t), src, StreamConfig{HeartbeatInterval: time.Hour, Buffer: 1})
	sub := &fakeSubscription{ch: make(chan []byte, 8), closed: make(chan struct{})}

	out := make(chan []byte, 1)
	raw, _ := Encode(Heartbeat{})
	for i := 0; i < 3; i++ {
		sub.ch <- raw
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.pump(ctx, sub, out)
	}()
	waitFor(t, time.Second, func() bool { return s.Dropped() == 2 })
	cancel()
	<-done
	if len(out) != 1 {
		t.Fatalf("buffer should hold one publication, has %d", len(out))
	}
}
