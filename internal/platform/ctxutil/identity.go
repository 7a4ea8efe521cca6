package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated user acting on a request.
type Identity struct {
	UserID uuid.UUID
	Name   string
	Role   string
	Avatar string
}

func (i Identity) IsZero() bool { return i.UserID == uuid.Nil }

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}
