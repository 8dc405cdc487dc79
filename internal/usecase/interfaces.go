package usecase

import (
	"time"

	"tailorchat/internal/domain/entity"
)

// Publisher pushes events to connected clients. Delivery is best effort.
type Publisher interface {
	PublishToUser(userID, eventType string, data interface{})
	PublishToConversation(conversationID, eventType string, data interface{}, excludeUserID string)
	IsOnline(userID string) bool
	IsViewing(userID, conversationID string) bool
}

// MessageEvent is the payload of message.created.
type MessageEvent struct {
	*entity.Message
	TempID string `json:"temp_id,omitempty"`
}

// ReadEvent is the payload of message.read.
type ReadEvent struct {
	ConversationID string `json:"conversation_id"`
	ReaderID       string `json:"reader_id"`
	Seq            int64  `json:"seq"`
}

// TypingEvent is the payload of typing.changed.
type TypingEvent struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	Typing         bool      `json:"typing"`
	ExpiresAt      time.Time `json:"expires_at,omitempty"`
}

// PresenceEvent is the payload of presence.changed.
type PresenceEvent struct {
	UserID   string    `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

type nopPublisher struct{}

func (nopPublisher) PublishToUser(string, string, interface{})                  {}
func (nopPublisher) PublishToConversation(string, string, interface{}, string) {}
func (nopPublisher) IsOnline(string) bool                                       { return false }
func (nopPublisher) IsViewing(string, string) bool                              { return false }

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
