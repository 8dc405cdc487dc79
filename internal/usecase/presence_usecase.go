package usecase

import (
	"context"
	"log"
	"time"

	ws "tailorchat/internal/infrastructure/websocket"
)

// PresenceUseCase reacts to users connecting and disconnecting.
type PresenceUseCase struct {
	conversations *ConversationUseCase
	typing        *TypingUseCase
	notifications *NotificationUseCase
	publisher     Publisher
	now           func() time.Time
}

func NewPresenceUseCase(conversations *ConversationUseCase, typing *TypingUseCase, notifications *NotificationUseCase, publisher Publisher) *PresenceUseCase {
	return &PresenceUseCase{
		conversations: conversations,
		typing:        typing,
		notifications: notifications,
		publisher:     publisherOrNop(publisher),
		now:           time.Now,
	}
}

func (uc *PresenceUseCase) Connected(ctx context.Context, userID string) {
	uc.changed(ctx, userID, true)
}

func (uc *PresenceUseCase) Disconnected(ctx context.Context, userID string) {
	if uc.typing != nil {
		uc.typing.StopAll(userID)
	}
	uc.changed(ctx, userID, false)
}

func (uc *PresenceUseCase) changed(ctx context.Context, userID string, online bool) {
	at := uc.now()
	conversations, err := uc.conversations.UpdatePresence(ctx, userID, online, at)
	if err != nil {
		log.Printf("UpdatePresence Error: user %s online=%v: %v", userID, online, err)
		return
	}

	event := PresenceEvent{UserID: userID, IsOnline: online, LastSeen: at}
	notified := make(map[string]bool)
	for _, conv := range conversations {
		counterpart := conv.Counterpart(userID)
		if counterpart == "" {
			continue
		}
		if notified[counterpart] {
			continue
		}
		notified[counterpart] = true
		uc.publisher.PublishToUser(counterpart, ws.EventPresenceChanged, event)

		if online && uc.notifications != nil && uc.publisher.IsOnline(counterpart) {
			uc.notifications.Notify(ctx, counterpart, onlineNotification(conv.Participants[userID], conv.ID))
		}
	}
}
