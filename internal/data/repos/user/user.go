package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/officechat-backend/internal/domain/user"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	// ListActive is the directory of users eligible for chat and presence.
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.User, error)
	GetActiveByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	SetActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, active bool) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (ur *userRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ur.db
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := ur.conn(tx).WithContext(ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := ur.conn(tx).WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByEmail returns nil, nil when no user has the email.
func (ur *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	var u types.User
	err := ur.conn(tx).WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	if err := ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.User, error) {
	var results []*types.User
	if err := ur.conn(tx).WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetActiveByID returns nil, nil when the user is missing, deleted or deactivated.
func (ur *userRepo) GetActiveByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	var u types.User
	err := ur.conn(tx).WithContext(ctx).
		Where("id = ? AND active = ?", userID, true).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) SetActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, active bool) error {
	return ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("active", active).Error
}
