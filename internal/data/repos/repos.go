package repos

import (
	"github.com/yungbote/officechat-backend/internal/data/repos/chat"
	"github.com/yungbote/officechat-backend/internal/data/repos/notification"
	"github.com/yungbote/officechat-backend/internal/data/repos/user"
)

type UserRepo = user.UserRepo
type NotificationRepo = notification.NotificationRepo

type MessageLogRepo = chat.MessageLogRepo
type PresenceRepo = chat.PresenceRepo
type MessageLogEntry = chat.Entry
