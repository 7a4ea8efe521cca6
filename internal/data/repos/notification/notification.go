package notification

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/officechat-backend/internal/domain/notification"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

type NotificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, n *types.Notification) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Notification, error)
	// MarkRead reports whether a notification owned by userID was updated.
	MarkRead(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (bool, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *notificationRepo) Create(ctx context.Context, tx *gorm.DB, n *types.Notification) error {
	return r.conn(tx).WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.Notification
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Model(&types.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
