package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/officechat-backend/internal/data/repos"
	"github.com/yungbote/officechat-backend/internal/domain/chat"
	"github.com/yungbote/officechat-backend/internal/domain/notification"
	"github.com/yungbote/officechat-backend/internal/observability"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

const (
	DefaultFanOutConcurrency = 8
	notificationListLimit    = 50
	previewRunes             = 140
)

type NotificationTemplate struct {
	Kind  string
	Title string
	Body  string
	RefID string
}

// BatchResult accounts for one fan-out. Err joins every per-recipient failure.
type BatchResult struct {
	Attempted int
	Delivered int
	Failed    int
	Err       error
}

type NotificationService interface {
	ChatNotifier
	// FanOut creates one notification per recipient and never stops early.
	FanOut(ctx context.Context, recipients []uuid.UUID, tmpl NotificationTemplate) BatchResult
	List(ctx context.Context, actor ctxutil.Identity) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, actor ctxutil.Identity, id uuid.UUID) error
}

type notificationService struct {
	log         *logger.Logger
	repo        repos.NotificationRepo
	users       repos.UserRepo
	metrics     *observability.Metrics
	concurrency int
}

func NewNotificationService(
	log *logger.Logger,
	repo repos.NotificationRepo,
	users repos.UserRepo,
	metrics *observability.Metrics,
	concurrency int,
) NotificationService {
	if concurrency <= 0 {
		concurrency = DefaultFanOutConcurrency
	}
	return &notificationService{
		log:         log.With("service", "NotificationService"),
		repo:        repo,
		users:       users,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

func (s *notificationService) FanOut(ctx context.Context, recipients []uuid.UUID, tmpl NotificationTemplate) BatchResult {
	res := BatchResult{Attempted: len(recipients)}
	if len(recipients) == 0 {
		return res
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(s.concurrency)
	for _, userID := range recipients {
		userID := userID
		g.Go(func() error {
			n := &notification.Notification{
				UserID: userID,
				Kind:   tmpl.Kind,
				Title:  tmpl.Title,
				Body:   tmpl.Body,
				RefID:  tmpl.RefID,
			}
			err := s.repo.Create(ctx, nil, n)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				errs = append(errs, fmt.Errorf("notify %s: %w", userID, err))
				return nil
			}
			res.Delivered++
			return nil
		})
	}
	_ = g.Wait()
	res.Err = errors.Join(errs...)
	s.metrics.AddNotifications(res.Delivered, res.Failed)
	return res
}

func (s *notificationService) NotifyChatMessage(ctx context.Context, msg *chat.ChatMessage) {
	users, err := s.users.ListActive(ctx, nil)
	if err != nil {
		s.log.Warn("chat notification skipped; directory unavailable", "message_id", msg.ID, "error", err)
		return
	}
	recipients := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		if msg.SenderID != "" && u.ID.String() == msg.SenderID {
			continue
		}
		if msg.SenderID == "" && u.Name == msg.Name {
			continue
		}
		recipients = append(recipients, u.ID)
	}

	res := s.FanOut(ctx, recipients, NotificationTemplate{
		Kind:  notification.KindChatMessage,
		Title: "New message from " + msg.Name,
		Body:  messagePreview(msg),
		RefID: msg.ID,
	})
	if res.Failed > 0 {
		s.log.Warn("chat notification fan-out incomplete",
			"message_id", msg.ID,
			"attempted", res.Attempted,
			"delivered", res.Delivered,
			"failed", res.Failed,
			"error", res.Err,
		)
		return
	}
	s.log.Debug("chat notification fan-out done", "message_id", msg.ID, "delivered", res.Delivered)
}

func messagePreview(msg *chat.ChatMessage) string {
	text := strings.TrimSpace(msg.Message)
	if text == "" {
		if len(msg.Attachments) == 1 {
			return "sent an attachment"
		}
		return fmt.Sprintf("sent %d attachments", len(msg.Attachments))
	}
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes]) + "…"
}

func (s *notificationService) List(ctx context.Context, actor ctxutil.Identity) ([]*notification.Notification, error) {
	if actor.IsZero() {
		return nil, apierr.Unauthorized("not authenticated")
	}
	rows, err := s.repo.ListByUser(ctx, nil, actor.UserID, notificationListLimit)
	if err != nil {
		return nil, asAPIError(ctx, s.log, "list notifications", err)
	}
	return rows, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor ctxutil.Identity, id uuid.UUID) error {
	if actor.IsZero() {
		return apierr.Unauthorized("not authenticated")
	}
	ok, err := s.repo.MarkRead(ctx, nil, actor.UserID, id)
	if err != nil {
		return asAPIError(ctx, s.log, "mark notification read", err)
	}
	if !ok {
		return apierr.NotFound("notification not found")
	}
	return nil
}
