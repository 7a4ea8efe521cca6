package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/officechat-backend/internal/data/repos"
	"github.com/yungbote/officechat-backend/internal/domain/chat"
	"github.com/yungbote/officechat-backend/internal/observability"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
	"github.com/yungbote/officechat-backend/internal/platform/gcp"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
	"github.com/yungbote/officechat-backend/internal/realtime"
	"github.com/yungbote/officechat-backend/internal/realtime/bus"
)

const defaultNotifyTimeout = 30 * time.Second

// SendMessageInput is the client-supplied part of a chat message. Name, Role and Avatar are
// the sender snapshot stored with the message.
type SendMessageInput struct {
	ID          string            `json:"id"`
	Name        string            `json:"name" validate:"required"`
	Role        string            `json:"role" validate:"required"`
	Avatar      string            `json:"avatar"`
	Message     string            `json:"message"`
	Attachments []chat.Attachment `json:"attachments" validate:"omitempty,dive"`
}

type ChatService interface {
	Append(ctx context.Context, actor ctxutil.Identity, in SendMessageInput) (*chat.ChatMessage, error)
	List(ctx context.Context) ([]*chat.ChatMessage, error)
	Edit(ctx context.Context, actor ctxutil.Identity, messageID, newText string) (*chat.ChatMessage, error)
	Delete(ctx context.Context, actor ctxutil.Identity, messageID string) error
}

// ChatNotifier is told about every stored message. It runs detached from the request.
type ChatNotifier interface {
	NotifyChatMessage(ctx context.Context, msg *chat.ChatMessage)
}

type chatService struct {
	log           *logger.Logger
	messages      repos.MessageLogRepo
	bus           bus.Bus
	media         gcp.MediaHost
	notifier      ChatNotifier
	metrics       *observability.Metrics
	validate      *inputValidator
	now           func() time.Time
	notifyTimeout time.Duration
}

func NewChatService(
	log *logger.Logger,
	messages repos.MessageLogRepo,
	eventBus bus.Bus,
	media gcp.MediaHost,
	notifier ChatNotifier,
	metrics *observability.Metrics,
) ChatService {
	return &chatService{
		log:           log.With("service", "ChatService"),
		messages:      messages,
		bus:           eventBus,
		media:         media,
		notifier:      notifier,
		metrics:       metrics,
		validate:      newInputValidator(),
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
}

func (s *chatService) Append(ctx context.Context, actor ctxutil.Identity, in SendMessageInput) (*chat.ChatMessage, error) {
	msg, err := s.append(ctx, actor, in)
	s.metrics.ObserveChatOp("append", resultOf(err))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.MessageCreated{Message: *msg})
	s.notify(ctx, msg)
	return msg, nil
}

func (s *chatService) append(ctx context.Context, actor ctxutil.Identity, in SendMessageInput) (*chat.ChatMessage, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.TrimSpace(in.Role)
	if err := s.validate.check(in); err != nil {
		return nil, err
	}
	msg := &chat.ChatMessage{
		ID:          in.ID,
		Name:        in.Name,
		Role:        in.Role,
		Avatar:      strings.TrimSpace(in.Avatar),
		Message:     in.Message,
		SentAt:      s.now().UTC(),
		Attachments: in.Attachments,
	}
	if !actor.IsZero() {
		msg.SenderID = actor.UserID.String()
	}
	if !msg.HasContent() {
		return nil, apierr.Validation("message text or at least one attachment is required")
	}
	for _, a := range msg.Attachments {
		if actor.IsZero() || !ownsAttachmentKey(actor.UserID.String(), a.ID) {
			return nil, apierr.Validation("attachments must be uploaded by the sender")
		}
	}
	if msg.Attachments == nil {
		msg.Attachments = []chat.Attachment{}
	}
	callerID := msg.ID != ""
	if !callerID {
		msg.ID = uuid.NewString()
	}

	err := s.messages.Locked(ctx, func(ctx context.Context) error {
		if callerID {
			entries, err := s.messages.Snapshot(ctx)
			if err != nil {
				return err
			}
			if findEntry(entries, msg.ID) >= 0 {
				return apierr.Validation("a message with this id already exists")
			}
		}
		return s.messages.Push(ctx, msg)
	})
	if err != nil {
		return nil, asAPIError(ctx, s.log, "append chat message", err)
	}
	return msg, nil
}

func (s *chatService) List(ctx context.Context) ([]*chat.ChatMessage, error) {
	msgs, err := s.messages.List(ctx)
	s.metrics.ObserveChatOp("list", resultOf(err))
	if err != nil {
		return nil, asAPIError(ctx, s.log, "list chat messages", err)
	}
	return msgs, nil
}

func (s *chatService) Edit(ctx context.Context, actor ctxutil.Identity, messageID, newText string) (*chat.ChatMessage, error) {
	updated, err := s.edit(ctx, actor, messageID, newText)
	s.metrics.ObserveChatOp("edit", resultOf(err))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.MessageEdited{Message: *updated})
	return updated, nil
}

func (s *chatService) edit(ctx context.Context, actor ctxutil.Identity, messageID, newText string) (*chat.ChatMessage, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" || strings.TrimSpace(newText) == "" {
		return nil, apierr.Validation("messageId and newText are required")
	}
	var updated chat.ChatMessage
	err := s.messages.Locked(ctx, func(ctx context.Context) error {
		entries, err := s.messages.Snapshot(ctx)
		if err != nil {
			return err
		}
		idx := findEntry(entries, messageID)
		if idx < 0 {
			return apierr.NotFound("message not found")
		}
		msg := entries[idx].Message
		if !ownsMessage(msg, actor) {
			return apierr.Forbidden("you can only edit your own messages")
		}
		msg.Message = newText
		msg.Edited = true
		if err := s.messages.Rewrite(ctx, entries); err != nil {
			return err
		}
		updated = *msg
		return nil
	})
	if err != nil {
		return nil, asAPIError(ctx, s.log, "edit chat message", err)
	}
	return &updated, nil
}

func (s *chatService) Delete(ctx context.Context, actor ctxutil.Identity, messageID string) error {
	removed, err := s.delete(ctx, actor, messageID)
	s.metrics.ObserveChatOp("delete", resultOf(err))
	if err != nil {
		return err
	}
	s.purgeAttachments(ctx, removed)
	s.publish(ctx, realtime.MessageDeleted{ID: removed.ID, DeletedBy: actor.Name})
	return nil
}

func (s *chatService) delete(ctx context.Context, actor ctxutil.Identity, messageID string) (*chat.ChatMessage, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return nil, apierr.Validation("messageId is required")
	}
	var removed *chat.ChatMessage
	err := s.messages.Locked(ctx, func(ctx context.Context) error {
		entries, err := s.messages.Snapshot(ctx)
		if err != nil {
			return err
		}
		idx := findEntry(entries, messageID)
		if idx < 0 {
			return apierr.NotFound("message not found")
		}
		msg := entries[idx].Message
		if !ownsMessage(msg, actor) {
			return apierr.Forbidden("you can only delete your own messages")
		}
		remaining := make([]repos.MessageLogEntry, 0, len(entries)-1)
		remaining = append(remaining, entries[:idx]...)
		remaining = append(remaining, entries[idx+1:]...)
		if err := s.messages.Rewrite(ctx, remaining); err != nil {
			return err
		}
		removed = msg
		return nil
	})
	if err != nil {
		return nil, asAPIError(ctx, s.log, "delete chat message", err)
	}
	return removed, nil
}

// purgeAttachments is best effort: the message is already gone. Only objects under the
// sender's own upload prefix are deleted.
func (s *chatService) purgeAttachments(ctx context.Context, msg *chat.ChatMessage) {
	if s.media == nil {
		return
	}
	for _, a := range msg.Attachments {
		if a.ID == "" {
			continue
		}
		if !ownsAttachmentKey(msg.SenderID, a.ID) {
			s.log.Warn("skipping attachment outside the sender's prefix", "message_id", msg.ID, "attachment", a.ID)
			continue
		}
		if err := s.media.Delete(ctx, a.ID); err != nil {
			s.log.Warn("attachment delete failed", "message_id", msg.ID, "attachment", a.ID, "error", err)
		}
	}
}

// publish logs failures; the log mutation has already been committed.
func (s *chatService) publish(ctx context.Context, ev realtime.Event) {
	if err := s.bus.Publish(ctx, ev); err != nil {
		fields := append([]interface{}{"type", ev.Type(), "error", err}, ctxutil.LogFields(ctx)...)
		s.log.Error("publish chat event failed", fields...)
		return
	}
	s.metrics.IncEventPublished(string(ev.Type()))
}

func (s *chatService) notify(ctx context.Context, msg *chat.ChatMessage) {
	if s.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		nctx, cancel := context.WithTimeout(detached, s.notifyTimeout)
		defer cancel()
		s.notifier.NotifyChatMessage(nctx, msg)
	}()
}

func findEntry(entries []repos.MessageLogEntry, id string) int {
	for i, e := range entries {
		if e.Message != nil && e.Message.ID == id {
			return i
		}
	}
	return -1
}

// ownsMessage compares stable ids; entries written before senderId existed fall back to the
// display name.
func ownsMessage(msg *chat.ChatMessage, actor ctxutil.Identity) bool {
	if msg.SenderID != "" {
		return !actor.IsZero() && msg.SenderID == actor.UserID.String()
	}
	return actor.Name != "" && msg.Name == actor.Name
}
