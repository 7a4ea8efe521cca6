package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleEmployee = "EMPLOYEE"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string    `gorm:"not null;column:password" json:"-"`
	Name      string    `gorm:"not null;column:name;index" json:"name"`
	Role      string    `gorm:"not null;column:role;default:EMPLOYEE" json:"role"`
	AvatarURL string    `gorm:"column:avatar_url" json:"avatar_url"`
	Active    bool      `gorm:"not null;column:active;default:true;index" json:"active"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
