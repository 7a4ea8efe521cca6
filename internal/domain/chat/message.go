package chat

import (
	"strings"
	"time"
)

// Attachment is a reference to a file held by the media host. ID is the host's public id.
type Attachment struct {
	ID       string `json:"id" validate:"required"`
	Filename string `json:"filename"`
	URL      string `json:"url" validate:"required"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
}

// ChatMessage is one entry of the team chat log. Name, Role and Avatar are a snapshot of
// the sender at send time.
type ChatMessage struct {
	ID          string       `json:"id"`
	SenderID    string       `json:"senderId,omitempty"`
	Name        string       `json:"name"`
	Role        string       `json:"role"`
	Avatar      string       `json:"avatar,omitempty"`
	Message     string       `json:"message"`
	SentAt      time.Time    `json:"sentAt"`
	Attachments []Attachment `json:"attachments"`
	Edited      bool         `json:"edited"`
}

// HasContent reports whether the message carries text or at least one attachment.
func (m *ChatMessage) HasContent() bool {
	return len(m.Attachments) > 0 || strings.TrimSpace(m.Message) != ""
}
