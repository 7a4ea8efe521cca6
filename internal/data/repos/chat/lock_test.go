package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/officechat-backend/internal/data/repos/testutil"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

func TestKeyedLockSerializes(t *testing.T) {
	_, rdb := testutil.Redis(t)
	lock := NewKeyedLock(rdb, testutil.Logger(t), 2*time.Second, 2*time.Second)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := lock.Do(ctx, "k:lock", func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Do: %v", err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected mutual exclusion, saw %d holders", maxSeen)
	}
	if n, err := rdb.Exists(ctx, "k:lock").Result(); err != nil || n != 0 {
		t.Fatalf("lock key should be released: n=%d err=%v", n, err)
	}
}

func TestKeyedLockTimesOut(t *testing.T) {
	_, rdb := testutil.Redis(t)
	ctx := context.Background()
	if err := rdb.Set(ctx, "k:lock", "someone-else", time.Minute).Err(); err != nil {
		t.Fatalf("seed lock: %v", err)
	}

	lock := NewKeyedLock(rdb, testutil.Logger(t), time.Second, 100*time.Millisecond)
	called := false
	err := lock.Do(ctx, "k:lock", func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	if called {
		t.Fatalf("fn must not run without the lock")
	}
	if v, _ := rdb.Get(ctx, "k:lock").Result(); v != "someone-else" {
		t.Fatalf("foreign lock must be left alone, got %q", v)
	}
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestKeyedLockWarnsWhenReleaseFails(t *testing.T) {
	mr, rdb := testutil.Redis(t)
	log, logs := observedLogger()
	lock := NewKeyedLock(rdb, log, time.Second, time.Second)

	err := lock.Do(context.Background(), "k:lock", func(ctx context.Context) error {
		mr.Close()
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := logs.FilterMessage("lock release failed").Len(); got != 1 {
		t.Fatalf("expected one release warning, got %d (%v)", got, logs.All())
	}
}

func TestKeyedLockWarnsWhenLockExpiredFirst(t *testing.T) {
	mr, rdb := testutil.Redis(t)
	log, logs := observedLogger()
	lock := NewKeyedLock(rdb, log, time.Second, time.Second)
	ctx := context.Background()

	err := lock.Do(ctx, "k:lock", func(ctx context.Context) error {
		// TTL ran out and another writer took the key.
		return mr.Set("k:lock", "next-holder")
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := logs.FilterMessage("lock expired before release").Len(); got != 1 {
		t.Fatalf("expected one expiry warning, got %d (%v)", got, logs.All())
	}
	if v, _ := rdb.Get(ctx, "k:lock").Result(); v != "next-holder" {
		t.Fatalf("the new holder's lock must be left alone, got %q", v)
	}
}

func TestKeyedLockCleanReleaseIsQuiet(t *testing.T) {
	_, rdb := testutil.Redis(t)
	log, logs := observedLogger()
	lock := NewKeyedLock(rdb, log, time.Second, time.Second)

	if err := lock.Do(context.Background(), "k:lock", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("no warnings expected, got %v", logs.All())
	}
}
