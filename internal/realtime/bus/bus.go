package bus

import (
	"context"

	"github.com/yungbote/officechat-backend/internal/realtime"
)

// Bus is the single broadcast channel shared by every chat stream.
type Bus interface {
	Publish(ctx context.Context, ev realtime.Event) error
	Subscribe(ctx context.Context) (realtime.Subscription, error)
	// Subscribers reports how many connections are currently subscribed.
	Subscribers(ctx context.Context) (int64, error)
	Close() error
}
