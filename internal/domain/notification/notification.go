package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const KindChatMessage = "chat_message"

type Notification struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_notification_user_created,priority:1" json:"user_id"`
	Kind   string    `gorm:"column:kind;not null" json:"kind"`
	Title  string    `gorm:"column:title;not null" json:"title"`
	Body   string    `gorm:"column:body;type:text;not null;default:''" json:"body"`
	RefID  string    `gorm:"column:ref_id;index" json:"ref_id,omitempty"`
	Read   bool      `gorm:"column:read;not null;default:false" json:"read"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_notification_user_created,priority:2" json:"created_at"`
}

func (Notification) TableName() string { return "notification" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
