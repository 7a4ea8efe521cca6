package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yungbote/officechat-backend/internal/domain/chat"
)

type EventType string

const (
	EventMessage       EventType = "message"
	EventMessageEdit   EventType = "message_edit"
	EventMessageDelete EventType = "message_delete"
	EventUserStatus    EventType = "user_status"
	EventTyping        EventType = "typing_indicator"
	EventHeartbeat     EventType = "heartbeat"
)

// Event is the closed set of broadcast payloads. Only types in this package implement it.
type Event interface {
	Type() EventType
	isEvent()
}

type MessageCreated struct {
	Message chat.ChatMessage
}

type MessageEdited struct {
	Message chat.ChatMessage
}

type MessageDeleted struct {
	ID        string `json:"id"`
	DeletedBy string `json:"deletedBy"`
}

type UserStatusChanged struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsOnline bool   `json:"isOnline"`
}

type TypingIndicator struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsTyping bool   `json:"isTyping"`
}

type Heartbeat struct{}

func (MessageCreated) Type() EventType    { return EventMessage }
func (MessageEdited) Type() EventType     { return EventMessageEdit }
func (MessageDeleted) Type() EventType    { return EventMessageDelete }
func (UserStatusChanged) Type() EventType { return EventUserStatus }
func (TypingIndicator) Type() EventType   { return EventTyping }
func (Heartbeat) Type() EventType         { return EventHeartbeat }

func (MessageCreated) isEvent()    {}
func (MessageEdited) isEvent()     {}
func (MessageDeleted) isEvent()    {}
func (UserStatusChanged) isEvent() {}
func (TypingIndicator) isEvent()   {}
func (Heartbeat) isEvent()         {}

var ErrUnknownEvent = errors.New("unknown event type")

type envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode renders ev as {"type": ..., "data": ...}. Heartbeat has no data.
func Encode(ev Event) ([]byte, error) {
	var payload any
	switch e := ev.(type) {
	case MessageCreated:
		payload = e.Message
	case MessageEdited:
		payload = e.Message
	case MessageDeleted:
		payload = e
	case UserStatusChanged:
		payload = e
	case TypingIndicator:
		payload = e
	case Heartbeat:
		return json.Marshal(envelope{Type: EventHeartbeat})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: ev.Type(), Data: data})
}

func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Type {
	case EventMessage:
		var m chat.ChatMessage
		if err := decodeData(env, &m); err != nil {
			return nil, err
		}
		return MessageCreated{Message: m}, nil
	case EventMessageEdit:
		var m chat.ChatMessage
		if err := decodeData(env, &m); err != nil {
			return nil, err
		}
		return MessageEdited{Message: m}, nil
	case EventMessageDelete:
		var e MessageDeleted
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventUserStatus:
		var e UserStatusChanged
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventTyping:
		var e TypingIndicator
		if err := decodeData(env, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventHeartbeat:
		return Heartbeat{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

func decodeData(env envelope, dst any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%s event without data", env.Type)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("decode %s data: %w", env.Type, err)
	}
	return nil
}
