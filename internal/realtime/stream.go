package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultClientBuffer      = 64
)

var (
	ErrStreamingUnsupported = errors.New("streaming unsupported")
	ErrSubscriptionClosed   = errors.New("subscription closed")
)

type State int32

const (
	StateSubscribing State = iota
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Subscription is one live attachment to the broadcast channel.
// Receive blocks until the next raw publication, ctx is done or the subscription is closed.
type Subscription interface {
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

type Subscriber interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

type StreamConfig struct {
	HeartbeatInterval time.Duration
	Buffer            int
}

// Stream relays broadcast publications to one push client.
type Stream struct {
	ID      uuid.UUID
	log     *logger.Logger
	source  Subscriber
	cfg     StreamConfig
	state   atomic.Int32
	dropped atomic.Int64
}

func NewStream(log *logger.Logger, source Subscriber, cfg StreamConfig) *Stream {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultClientBuffer
	}
	id := uuid.New()
	return &Stream{
		ID:     id,
		log:    log.With("component", "ChatStream", "stream_id", id.String()),
		source: source,
		cfg:    cfg,
	}
}

func (s *Stream) State() State { return State(s.state.Load()) }

// Dropped counts publications discarded because the client buffer was full.
func (s *Stream) Dropped() int64 { return s.dropped.Load() }

func (s *Stream) setState(st State) {
	s.state.Store(int32(st))
	s.log.Debug("stream state", "state", st.String())
}

// Serve runs the stream until ctx is cancelled, a write fails or the subscription ends.
// A subscribe failure is returned before anything is written to w.
func (s *Stream) Serve(ctx context.Context, w http.ResponseWriter) error {
	s.setState(StateSubscribing)

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.setState(StateClosed)
		return ErrStreamingUnsupported
	}
	heartbeat, err := Encode(Heartbeat{})
	if err != nil {
		s.setState(StateClosed)
		return err
	}

	sub, err := s.source.Subscribe(ctx)
	if err != nil {
		s.setState(StateClosed)
		return fmt.Errorf("subscribe: %w", err)
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	s.setState(StateActive)

	out := make(chan []byte, s.cfg.Buffer)
	pumpCtx, detach := context.WithCancel(ctx)
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		s.pump(pumpCtx, sub, out)
	}()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)

	var serveErr error
loop:
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("stream client gone", "err", ctx.Err())
			break loop
		case <-pumpDone:
			serveErr = ErrSubscriptionClosed
			break loop
		case <-ticker.C:
			if serveErr = writeFrame(w, flusher, heartbeat); serveErr != nil {
				break loop
			}
		case raw := <-out:
			if serveErr = writeFrame(w, flusher, raw); serveErr != nil {
				break loop
			}
		}
	}

	s.setState(StateClosing)
	ticker.Stop()
	if err := sub.Close(); err != nil {
		s.log.Warn("stream unsubscribe failed", "error", err)
	}
	detach()
	<-pumpDone
	close(out)
	s.setState(StateClosed)
	return serveErr
}

func (s *Stream) pump(ctx context.Context, sub Subscription, out chan<- []byte) {
	for {
		raw, err := sub.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil && s.State() == StateActive {
				s.log.Warn("stream subscription ended", "error", err)
			}
			return
		}
		if _, err := Decode(raw); err != nil {
			s.log.Warn("skipping undecodable publication", "error", err)
			continue
		}
		select {
		case out <- raw:
		default:
			s.dropped.Add(1)
			s.log.Warn("dropping publication; client buffer full")
		}
	}
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, payload []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
