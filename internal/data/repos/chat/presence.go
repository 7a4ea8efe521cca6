package chat

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/officechat-backend/internal/domain/chat"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

type PresenceRepo interface {
	Set(ctx context.Context, userID string, entry chat.PresenceEntry) error
	Delete(ctx context.Context, userID string) error
	// All returns every decodable entry keyed by user id. Stale entries are included.
	All(ctx context.Context) (map[string]chat.PresenceEntry, error)
}

type presenceRepo struct {
	rdb goredis.UniversalClient
	log *logger.Logger
	key string
}

func NewPresenceRepo(rdb goredis.UniversalClient, log *logger.Logger, key string) PresenceRepo {
	if key == "" {
		key = "chat:online_users"
	}
	return &presenceRepo{rdb: rdb, log: log.With("repo", "PresenceRepo", "key", key), key: key}
}

func (r *presenceRepo) Set(ctx context.Context, userID string, entry chat.PresenceEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode presence: %w", err)
	}
	return r.rdb.HSet(ctx, r.key, userID, raw).Err()
}

func (r *presenceRepo) Delete(ctx context.Context, userID string) error {
	return r.rdb.HDel(ctx, r.key, userID).Err()
}

func (r *presenceRepo) All(ctx context.Context) (map[string]chat.PresenceEntry, error) {
	raw, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]chat.PresenceEntry, len(raw))
	for userID, val := range raw {
		var entry chat.PresenceEntry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			r.log.Warn("skipping unreadable presence entry", "user_id", userID, "error", err)
			continue
		}
		out[userID] = entry
	}
	return out, nil
}
