package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/yungbote/officechat-backend/internal/data/repos/testutil"
	"github.com/yungbote/officechat-backend/internal/domain/chat"
)

func newTestLog(t *testing.T, max int) (MessageLogRepo, func(vals ...string)) {
	t.Helper()
	mr, rdb := testutil.Redis(t)
	repo := NewMessageLogRepo(rdb, NewKeyedLock(rdb, testutil.Logger(t), time.Second, time.Second), testutil.Logger(t), MessageLogConfig{
		Key:    "chat:messages",
		MaxLen: max,
	})
	raw := func(vals ...string) {
		for _, v := range vals {
			if _, err := mr.Lpush("chat:messages", v); err != nil {
				t.Fatalf("lpush raw: %v", err)
			}
		}
	}
	return repo, raw
}

func TestMessageLogPushTrimsToMax(t *testing.T) {
	repo, _ := newTestLog(t, 5)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if err := repo.Push(ctx, &chat.ChatMessage{ID: fmt.Sprintf("m%d", i), Name: "A", Role: "ADMIN", Message: "x"}); err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
	}
	n, err := repo.Len(ctx)
	if err != nil || n != 5 {
		t.Fatalf("Len: n=%d err=%v", n, err)
	}
	msgs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i, m := range msgs {
		want := fmt.Sprintf("m%d", 11-i)
		if m.ID != want {
			t.Fatalf("List[%d]: want %s got %s", i, want, m.ID)
		}
	}
}

func TestMessageLogSkipsCorruptEntries(t *testing.T) {
	repo, raw := newTestLog(t, 10)
	ctx := context.Background()

	if err := repo.Push(ctx, &chat.ChatMessage{ID: "old", Name: "A", Role: "ADMIN", Message: "x"}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	raw("{not json")
	if err := repo.Push(ctx, &chat.ChatMessage{ID: "new", Name: "A", Role: "ADMIN", Message: "y"}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	msgs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "new" || msgs[1].ID != "old" {
		t.Fatalf("List: unexpected result %+v", msgs)
	}

	entries, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(entries) != 3 || entries[1].Message != nil || entries[1].Raw != "{not json" {
		t.Fatalf("Snapshot: corrupt entry not preserved: %+v", entries)
	}
}

func TestMessageLogRewriteKeepsOrderAndRawEntries(t *testing.T) {
	repo, raw := newTestLog(t, 10)
	ctx := context.Background()

	raw("garbage")
	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Push(ctx, &chat.ChatMessage{ID: id, Name: "A", Role: "ADMIN", Message: id}); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	err := repo.Locked(ctx, func(ctx context.Context) error {
		entries, err := repo.Snapshot(ctx)
		if err != nil {
			return err
		}
		kept := entries[:0]
		for _, e := range entries {
			if e.Message != nil && e.Message.ID == "b" {
				continue
			}
			if e.Message != nil && e.Message.ID == "c" {
				e.Message.Message = "edited"
				e.Message.Edited = true
			}
			kept = append(kept, e)
		}
		return repo.Rewrite(ctx, kept)
	})
	if err != nil {
		t.Fatalf("Locked rewrite: %v", err)
	}

	entries, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Snapshot: want 3 entries got %d", len(entries))
	}
	if entries[0].Message == nil || entries[0].Message.ID != "c" || !entries[0].Message.Edited {
		t.Fatalf("entry 0: %+v", entries[0])
	}
	if entries[1].Message == nil || entries[1].Message.ID != "a" {
		t.Fatalf("entry 1: %+v", entries[1])
	}
	if entries[2].Raw != "garbage" {
		t.Fatalf("entry 2: raw entry lost: %+v", entries[2])
	}
}

func TestMessageLogRewriteEmpty(t *testing.T) {
	repo, _ := newTestLog(t, 10)
	ctx := context.Background()
	if err := repo.Push(ctx, &chat.ChatMessage{ID: "a", Name: "A", Role: "ADMIN", Message: "a"}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := repo.Rewrite(ctx, nil); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if n, err := repo.Len(ctx); err != nil || n != 0 {
		t.Fatalf("Len: n=%d err=%v", n, err)
	}
}
