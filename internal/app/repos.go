package app

import (
	"github.com/yungbote/officechat-backend/internal/data/repos"
	chatrepo "github.com/yungbote/officechat-backend/internal/data/repos/chat"
	notifrepo "github.com/yungbote/officechat-backend/internal/data/repos/notification"
	userrepo "github.com/yungbote/officechat-backend/internal/data/repos/user"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	Notification repos.NotificationRepo
	MessageLog   repos.MessageLogRepo
	Presence     repos.PresenceRepo
}

func wireRepos(log *logger.Logger, cfg Config, clients Clients) Repos {
	log.Info("Wiring repos...")
	theDB := clients.DB.DB()
	lock := chatrepo.NewKeyedLock(clients.Redis, log, cfg.Chat.LockTTL, cfg.Chat.LockWait)
	return Repos{
		User:         userrepo.NewUserRepo(theDB, log),
		Notification: notifrepo.NewNotificationRepo(theDB, log),
		MessageLog: chatrepo.NewMessageLogRepo(clients.Redis, lock, log, chatrepo.MessageLogConfig{
			Key:    cfg.Chat.LogKey,
			MaxLen: cfg.Chat.LogMax,
		}),
		Presence: chatrepo.NewPresenceRepo(clients.Redis, log, cfg.Chat.PresenceKey),
	}
}
