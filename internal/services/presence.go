package services

import (
	"context"
	"time"

	"github.com/yungbote/officechat-backend/internal/data/repos"
	"github.com/yungbote/officechat-backend/internal/domain/chat"
	"github.com/yungbote/officechat-backend/internal/observability"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
	"github.com/yungbote/officechat-backend/internal/realtime"
	"github.com/yungbote/officechat-backend/internal/realtime/bus"
)

const DefaultPresenceStaleAfter = 2 * time.Minute

type PresenceService interface {
	SetOnline(ctx context.Context, actor ctxutil.Identity) error
	SetOffline(ctx context.Context, actor ctxutil.Identity) error
	// ListUsers joins the active-user directory with presence. Staleness is evaluated here.
	ListUsers(ctx context.Context) ([]chat.OnlineUser, error)
	SetTyping(ctx context.Context, actor ctxutil.Identity, isTyping bool) error
}

type presenceService struct {
	log        *logger.Logger
	presence   repos.PresenceRepo
	users      repos.UserRepo
	bus        bus.Bus
	metrics    *observability.Metrics
	staleAfter time.Duration
	now        func() time.Time
}

func NewPresenceService(
	log *logger.Logger,
	presence repos.PresenceRepo,
	users repos.UserRepo,
	eventBus bus.Bus,
	metrics *observability.Metrics,
	staleAfter time.Duration,
) PresenceService {
	if staleAfter <= 0 {
		staleAfter = DefaultPresenceStaleAfter
	}
	return &presenceService{
		log:        log.With("service", "PresenceService"),
		presence:   presence,
		users:      users,
		bus:        eventBus,
		metrics:    metrics,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (s *presenceService) SetOnline(ctx context.Context, actor ctxutil.Identity) error {
	if actor.IsZero() {
		return apierr.Unauthorized("not authenticated")
	}
	entry := chat.PresenceEntry{LastSeen: s.now().UTC(), Name: actor.Name, Role: actor.Role}
	err := s.presence.Set(ctx, actor.UserID.String(), entry)
	s.metrics.ObserveChatOp("set_online", resultOf(err))
	if err != nil {
		return asAPIError(ctx, s.log, "set presence online", err)
	}
	s.publishStatus(ctx, actor, true)
	return nil
}

func (s *presenceService) SetOffline(ctx context.Context, actor ctxutil.Identity) error {
	if actor.IsZero() {
		return apierr.Unauthorized("not authenticated")
	}
	err := s.presence.Delete(ctx, actor.UserID.String())
	s.metrics.ObserveChatOp("set_offline", resultOf(err))
	if err != nil {
		return asAPIError(ctx, s.log, "set presence offline", err)
	}
	s.publishStatus(ctx, actor, false)
	return nil
}

func (s *presenceService) publishStatus(ctx context.Context, actor ctxutil.Identity, online bool) {
	ev := realtime.UserStatusChanged{
		UserID:   actor.UserID.String(),
		Name:     actor.Name,
		Role:     actor.Role,
		IsOnline: online,
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Error("publish user status failed", append([]interface{}{"error", err}, ctxutil.LogFields(ctx)...)...)
		return
	}
	s.metrics.IncEventPublished(string(ev.Type()))
}

func (s *presenceService) ListUsers(ctx context.Context) ([]chat.OnlineUser, error) {
	users, err := s.users.ListActive(ctx, nil)
	if err != nil {
		return nil, asAPIError(ctx, s.log, "list active users", err)
	}
	entries, err := s.presence.All(ctx)
	if err != nil {
		return nil, asAPIError(ctx, s.log, "read presence", err)
	}

	now := s.now().UTC()
	out := make([]chat.OnlineUser, 0, len(users))
	for _, u := range users {
		row := chat.OnlineUser{
			ID:     u.ID.String(),
			Name:   u.Name,
			Role:   u.Role,
			Avatar: u.AvatarURL,
		}
		if entry, ok := entries[row.ID]; ok {
			lastSeen := entry.LastSeen
			row.LastSeen = &lastSeen
			row.IsOnline = entry.Online(now, s.staleAfter)
		}
		out = append(out, row)
	}
	return out, nil
}

// SetTyping is publish-only; nothing is stored.
func (s *presenceService) SetTyping(ctx context.Context, actor ctxutil.Identity, isTyping bool) error {
	if actor.IsZero() {
		return apierr.Unauthorized("not authenticated")
	}
	ev := realtime.TypingIndicator{
		UserID:   actor.UserID.String(),
		Name:     actor.Name,
		Role:     actor.Role,
		IsTyping: isTyping,
	}
	err := s.bus.Publish(ctx, ev)
	s.metrics.ObserveChatOp("typing", resultOf(err))
	if err != nil {
		return asAPIError(ctx, s.log, "publish typing indicator", err)
	}
	s.metrics.IncEventPublished(string(ev.Type()))
	return nil
}
