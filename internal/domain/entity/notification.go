package entity

import "time"

type NotificationType string

const (
	NotificationMessage     NotificationType = "message"
	NotificationTyping      NotificationType = "typing"
	NotificationOnline      NotificationType = "online"
	NotificationOrderUpdate NotificationType = "order_update"
)

type ChatNotification struct {
	ID             string           `json:"id"`
	RecipientID    string           `json:"recipient_id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	ConversationID string           `json:"conversation_id,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
	IsRead         bool             `json:"is_read"`
}

// TypingIndicator is ephemeral and never persisted.
type TypingIndicator struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	Timestamp      time.Time `json:"timestamp"`
	ExpiresAt      time.Time `json:"expires_at"`
}
