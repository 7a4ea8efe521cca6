package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	chatrepo "github.com/yungbote/officechat-backend/internal/data/repos/chat"
	"github.com/yungbote/officechat-backend/internal/data/repos/testutil"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
	"github.com/yungbote/officechat-backend/internal/platform/gcp"
	"github.com/yungbote/officechat-backend/internal/realtime"
)

type recordingBus struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (b *recordingBus) Publish(ctx context.Context, ev realtime.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context) (realtime.Subscription, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBus) Subscribers(ctx context.Context) (int64, error) { return 0, nil }

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) ofType(t realtime.EventType) []realtime.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []realtime.Event
	for _, ev := range b.events {
		if ev.Type() == t {
			out = append(out, ev)
		}
	}
	return out
}

type fakeMedia struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr map[string]error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{uploads: map[string][]byte{}, deleteErr: map[string]error{}}
}

func (m *fakeMedia) Upload(ctx context.Context, key, contentType string, r io.Reader) (gcp.UploadResult, error) {
	if m.uploadErr != nil {
		return gcp.UploadResult{}, m.uploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return gcp.UploadResult{}, err
	}
	m.mu.Lock()
	m.uploads[key] = buf.Bytes()
	m.mu.Unlock()
	return gcp.UploadResult{URL: "https://media.test/" + key, PublicID: key}, nil
}

func (m *fakeMedia) Delete(ctx context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, publicID)
	return m.deleteErr[publicID]
}

func identity(name, role string) ctxutil.Identity {
	return ctxutil.Identity{UserID: uuid.New(), Name: name, Role: role}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apierr.IsCode(err, code) {
		t.Fatalf("want error code %q, got %v", code, err)
	}
}

type chatFixture struct {
	svc      *chatService
	messages chatrepo.MessageLogRepo
	bus      *recordingBus
	media    *fakeMedia
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	_, rdb := testutil.Redis(t)
	log := testutil.Logger(t)
	messages := chatrepo.NewMessageLogRepo(rdb, chatrepo.NewKeyedLock(rdb, log, 2*time.Second, 5*time.Second), log, chatrepo.MessageLogConfig{})
	b := &recordingBus{}
	media := newFakeMedia()
	svc := NewChatService(log, messages, b, media, nil, nil).(*chatService)
	return &chatFixture{svc: svc, messages: messages, bus: b, media: media}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.DB(t)
}
