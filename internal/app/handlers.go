package app

import (
	"context"

	httpH "github.com/yungbote/officechat-backend/internal/http/handlers"
	"github.com/yungbote/officechat-backend/internal/observability"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
	"github.com/yungbote/officechat-backend/internal/realtime"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	User         *httpH.UserHandler
	Chat         *httpH.ChatHandler
	Presence     *httpH.PresenceHandler
	Attachment   *httpH.AttachmentHandler
	Notification *httpH.NotificationHandler
	Realtime     *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, cfg Config, clients Clients, services Services, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health: httpH.NewHealthHandler(map[string]httpH.Pinger{
			"redis": func(ctx context.Context) error { return clients.Redis.Ping(ctx).Err() },
			"database": func(ctx context.Context) error {
				sqlDB, err := clients.DB.DB().DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		}),
		Auth:         httpH.NewAuthHandler(services.Auth),
		User:         httpH.NewUserHandler(services.Auth),
		Chat:         httpH.NewChatHandler(services.Chat),
		Presence:     httpH.NewPresenceHandler(services.Presence),
		Notification: httpH.NewNotificationHandler(services.Notification),
		Realtime: httpH.NewRealtimeHandler(log, clients.Bus, metrics, realtime.StreamConfig{
			HeartbeatInterval: cfg.Chat.HeartbeatInterval,
			Buffer:            cfg.Chat.ClientBuffer,
		}),
	}
	if services.Attachment != nil {
		h.Attachment = httpH.NewAttachmentHandler(services.Attachment, cfg.Storage.MaxBytes)
	}
	return h
}
