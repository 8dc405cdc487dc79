package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tailorchat/internal/domain/entity"
	ws "tailorchat/internal/infrastructure/websocket"
)

// NotificationEvent is a chat event worth surfacing to a recipient.
type NotificationEvent struct {
	Type           entity.NotificationType
	Title          string
	Message        string
	ConversationID string
}

type notificationEntry struct {
	notification entity.ChatNotification
	timer        *time.Timer
}

// NotificationUseCase keeps a bounded, self-expiring inbox per recipient.
type NotificationUseCase struct {
	mu       sync.Mutex
	inboxes  map[string][]*notificationEntry // oldest first
	capacity int
	ttl      time.Duration
	closed   bool

	publisher Publisher
	now       func() time.Time
}

func NewNotificationUseCase(publisher Publisher, capacity int, ttl time.Duration) *NotificationUseCase {
	if capacity <= 0 {
		capacity = 10
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &NotificationUseCase{
		inboxes:   make(map[string][]*notificationEntry),
		capacity:  capacity,
		ttl:       ttl,
		publisher: publisherOrNop(publisher),
		now:       time.Now,
	}
}

// Notify records event for recipientID, evicting the oldest entry when full, and
// pushes notification.created.
func (uc *NotificationUseCase) Notify(ctx context.Context, recipientID string, event NotificationEvent) entity.ChatNotification {
	n := entity.ChatNotification{
		ID:             uuid.New().String(),
		RecipientID:    recipientID,
		Type:           event.Type,
		Title:          event.Title,
		Message:        event.Message,
		ConversationID: event.ConversationID,
		Timestamp:      uc.now(),
	}

	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		return n
	}
	entry := &notificationEntry{notification: n}
	entry.timer = time.AfterFunc(uc.ttl, func() { uc.expire(recipientID, n.ID) })

	inbox := append(uc.inboxes[recipientID], entry)
	for len(inbox) > uc.capacity {
		inbox[0].timer.Stop()
		inbox[0] = nil
		inbox = inbox[1:]
	}
	uc.inboxes[recipientID] = inbox
	uc.mu.Unlock()

	uc.publisher.PublishToUser(recipientID, ws.EventNotificationCreated, n)
	return n
}

// expire drops an unread notification. Read ones have no running timer.
func (uc *NotificationUseCase) expire(recipientID, id string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if i := uc.indexOf(recipientID, id); i >= 0 && !uc.inboxes[recipientID][i].notification.IsRead {
		uc.removeAt(recipientID, i)
	}
}

// Dismiss removes a notification. Unknown or already expired ids are ignored.
func (uc *NotificationUseCase) Dismiss(recipientID, id string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if i := uc.indexOf(recipientID, id); i >= 0 {
		uc.inboxes[recipientID][i].timer.Stop()
		uc.removeAt(recipientID, i)
	}
}

// MarkRead keeps the notification and cancels its expiry. It reports whether id
// was still present.
func (uc *NotificationUseCase) MarkRead(recipientID, id string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	i := uc.indexOf(recipientID, id)
	if i < 0 {
		return false
	}
	entry := uc.inboxes[recipientID][i]
	entry.timer.Stop()
	entry.notification.IsRead = true
	return true
}

// List returns recipientID's notifications, newest first.
func (uc *NotificationUseCase) List(recipientID string) []entity.ChatNotification {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	inbox := uc.inboxes[recipientID]
	result := make([]entity.ChatNotification, 0, len(inbox))
	for i := len(inbox) - 1; i >= 0; i-- {
		result = append(result, inbox[i].notification)
	}
	return result
}

// Close stops every pending expiry.
func (uc *NotificationUseCase) Close() {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.closed = true
	for _, inbox := range uc.inboxes {
		for _, entry := range inbox {
			entry.timer.Stop()
		}
	}
}

func (uc *NotificationUseCase) indexOf(recipientID, id string) int {
	for i, entry := range uc.inboxes[recipientID] {
		if entry.notification.ID == id {
			return i
		}
	}
	return -1
}

func (uc *NotificationUseCase) removeAt(recipientID string, i int) {
	inbox := uc.inboxes[recipientID]
	inbox = append(inbox[:i], inbox[i+1:]...)
	if len(inbox) == 0 {
		delete(uc.inboxes, recipientID)
		return
	}
	uc.inboxes[recipientID] = inbox
}

func messageNotification(msg *entity.Message) NotificationEvent {
	return NotificationEvent{
		Type:           entity.NotificationMessage,
		Title:          fmt.Sprintf("New message from %s", displayName(msg.SenderName, msg.SenderID)),
		Message:        truncate(msg.Preview(), 80),
		ConversationID: msg.ConversationID,
	}
}

func onlineNotification(p entity.Participant, conversationID string) NotificationEvent {
	return NotificationEvent{
		Type:           entity.NotificationOnline,
		Title:          fmt.Sprintf("%s is online", displayName(p.Name, p.ID)),
		Message:        "Your conversation partner is available to chat",
		ConversationID: conversationID,
	}
}

func typingNotification(name, conversationID string) NotificationEvent {
	return NotificationEvent{
		Type:           entity.NotificationTyping,
		Title:          fmt.Sprintf("%s is typing", name),
		Message:        "A reply is on its way",
		ConversationID: conversationID,
	}
}

func orderUpdateNotification(orderID, status, conversationID string) NotificationEvent {
	return NotificationEvent{
		Type:           entity.NotificationOrderUpdate,
		Title:          "Order update",
		Message:        fmt.Sprintf("Order %s is now %s", orderID, status),
		ConversationID: conversationID,
	}
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
