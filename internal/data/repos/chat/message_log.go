package chat

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/officechat-backend/internal/domain/chat"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

const DefaultMaxMessages = 500

// Entry is one raw list element. Message is nil when Raw does not decode; such entries
// are kept verbatim when the list is rewritten.
type Entry struct {
	Raw     string
	Message *chat.ChatMessage
}

type MessageLogRepo interface {
	// Push inserts at the head and trims the list to the configured maximum.
	Push(ctx context.Context, msg *chat.ChatMessage) error
	// List returns the decodable messages newest-first.
	List(ctx context.Context) ([]*chat.ChatMessage, error)
	Snapshot(ctx context.Context) ([]Entry, error)
	// Rewrite replaces the whole list with entries, in order, atomically.
	Rewrite(ctx context.Context, entries []Entry) error
	Len(ctx context.Context) (int64, error)
	// Locked runs fn inside the log's critical section.
	Locked(ctx context.Context, fn func(ctx context.Context) error) error
	MaxLen() int
}

type MessageLogConfig struct {
	Key     string
	MaxLen  int
	LockKey string
}

type messageLogRepo struct {
	rdb  goredis.UniversalClient
	log  *logger.Logger
	lock *KeyedLock
	cfg  MessageLogConfig
}

func NewMessageLogRepo(rdb goredis.UniversalClient, lock *KeyedLock, log *logger.Logger, cfg MessageLogConfig) MessageLogRepo {
	if cfg.Key == "" {
		cfg.Key = "chat:messages"
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = DefaultMaxMessages
	}
	if cfg.LockKey == "" {
		cfg.LockKey = cfg.Key + ":lock"
	}
	return &messageLogRepo{
		rdb:  rdb,
		log:  log.With("repo", "MessageLogRepo", "key", cfg.Key),
		lock: lock,
		cfg:  cfg,
	}
}

func (r *messageLogRepo) MaxLen() int { return r.cfg.MaxLen }

func (r *messageLogRepo) Push(ctx context.Context, msg *chat.ChatMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LPush(ctx, r.cfg.Key, raw)
		pipe.LTrim(ctx, r.cfg.Key, 0, int64(r.cfg.MaxLen-1))
		return nil
	})
	return err
}

func (r *messageLogRepo) Snapshot(ctx context.Context) ([]Entry, error) {
	raws, err := r.rdb.LRange(ctx, r.cfg.Key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(raws))
	for i, raw := range raws {
		e := Entry{Raw: raw}
		var msg chat.ChatMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			r.log.Warn("skipping unreadable chat log entry", "index", i, "error", err)
		} else {
			e.Message = &msg
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *messageLogRepo) List(ctx context.Context) ([]*chat.ChatMessage, error) {
	entries, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*chat.ChatMessage, 0, len(entries))
	for _, e := range entries {
		if e.Message != nil {
			out = append(out, e.Message)
		}
	}
	return out, nil
}

func (r *messageLogRepo) Rewrite(ctx context.Context, entries []Entry) error {
	values := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		if e.Message == nil {
			values = append(values, e.Raw)
			continue
		}
		raw, err := json.Marshal(e.Message)
		if err != nil {
			return fmt.Errorf("encode message %s: %w", e.Message.ID, err)
		}
		values = append(values, raw)
	}
	_, err := r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.cfg.Key)
		if len(values) > 0 {
			pipe.RPush(ctx, r.cfg.Key, values...)
		}
		return nil
	})
	return err
}

func (r *messageLogRepo) Len(ctx context.Context) (int64, error) {
	return r.rdb.LLen(ctx, r.cfg.Key).Result()
}

func (r *messageLogRepo) Locked(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.lock == nil {
		return fn(ctx)
	}
	return r.lock.Do(ctx, r.cfg.LockKey, fn)
}
