package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/officechat-backend/internal/domain/notification"
	"github.com/yungbote/officechat-backend/internal/domain/user"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&user.User{},
		&notification.Notification{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Running auto migrations")
	return AutoMigrateAll(s.db)
}
