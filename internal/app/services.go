package app

import (
	"github.com/yungbote/officechat-backend/internal/observability"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
	"github.com/yungbote/officechat-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Chat         services.ChatService
	Presence     services.PresenceService
	Attachment   services.AttachmentService
	Notification services.NotificationService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet Repos, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	notifications := services.NewNotificationService(log, reposet.Notification, reposet.User, metrics, cfg.Chat.FanOutConcurrency)

	var attachments services.AttachmentService
	if clients.Media != nil {
		attachments = services.NewAttachmentService(log, clients.Media, metrics, cfg.Storage.MaxBytes)
	}

	return Services{
		Auth:         services.NewAuthService(log, reposet.User, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Chat:         services.NewChatService(log, reposet.MessageLog, clients.Bus, clients.Media, notifications, metrics),
		Presence:     services.NewPresenceService(log, reposet.Presence, reposet.User, clients.Bus, metrics, cfg.Chat.PresenceStaleAfter),
		Attachment:   attachments,
		Notification: notifications,
	}
}
