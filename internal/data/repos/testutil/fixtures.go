package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/officechat-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, name, role string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     name,
		Role:     role,
		Active:   true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}
