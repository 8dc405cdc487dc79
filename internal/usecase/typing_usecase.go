package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/repository"
	ws "tailorchat/internal/infrastructure/websocket"
	"tailorchat/pkg/errors"
)

type typingKey struct {
	conversationID string
	userID         string
}

type typingEntry struct {
	indicator entity.TypingIndicator
	timer     *time.Timer
	gen       uint64
}

// TypingUseCase tracks Idle/Typing per (conversation, user). Every Typing entry
// carries a timer so a lost stop signal heals on its own.
type TypingUseCase struct {
	mu      sync.Mutex
	entries map[typingKey]*typingEntry
	gen     uint64
	ttl     time.Duration
	closed  bool

	convRepo      repository.ConversationRepository
	notifications *NotificationUseCase
	publisher     Publisher
	now           func() time.Time
}

func NewTypingUseCase(convRepo repository.ConversationRepository, notifications *NotificationUseCase, publisher Publisher, ttl time.Duration) *TypingUseCase {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &TypingUseCase{
		entries:       make(map[typingKey]*typingEntry),
		ttl:           ttl,
		convRepo:      convRepo,
		notifications: notifications,
		publisher:     publisherOrNop(publisher),
		now:           time.Now,
	}
}

// StartTyping moves the user to Typing and (re)arms the inactivity timer.
func (uc *TypingUseCase) StartTyping(ctx context.Context, conversationID, userID string) error {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return errors.UnauthorizedSender(userID, conversationID)
	}

	key := typingKey{conversationID: conversationID, userID: userID}
	now := uc.now()

	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		return nil
	}
	uc.gen++
	gen := uc.gen
	entry, typing := uc.entries[key]
	if typing {
		entry.timer.Stop()
	} else {
		entry = &typingEntry{indicator: entity.TypingIndicator{
			ConversationID: conversationID,
			UserID:         userID,
			UserName:       displayName(conv.Participants[userID].Name, userID),
		}}
		uc.entries[key] = entry
	}
	entry.gen = gen
	entry.indicator.Timestamp = now
	entry.indicator.ExpiresAt = now.Add(uc.ttl)
	entry.timer = time.AfterFunc(uc.ttl, func() { uc.expire(key, gen) })
	indicator := entry.indicator
	uc.mu.Unlock()

	if typing {
		return nil
	}

	uc.publisher.PublishToConversation(conversationID, ws.EventTypingChanged, TypingEvent{
		ConversationID: conversationID,
		UserID:         userID,
		UserName:       indicator.UserName,
		Typing:         true,
		ExpiresAt:      indicator.ExpiresAt,
	}, userID)

	counterpart := conv.Counterpart(userID)
	if uc.notifications != nil && uc.publisher.IsOnline(counterpart) && !uc.publisher.IsViewing(counterpart, conversationID) {
		uc.notifications.Notify(ctx, counterpart, typingNotification(indicator.UserName, conversationID))
	}
	return nil
}

// StopTyping moves the user back to Idle. Stopping an idle user is a no-op.
func (uc *TypingUseCase) StopTyping(ctx context.Context, conversationID, userID string) error {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return errors.UnauthorizedSender(userID, conversationID)
	}

	uc.stop(typingKey{conversationID: conversationID, userID: userID}, 0)
	return nil
}

// clear drops the indicator of userID in one conversation, e.g. once they sent a message.
func (uc *TypingUseCase) clear(conversationID, userID string) {
	uc.stop(typingKey{conversationID: conversationID, userID: userID}, 0)
}

// StopAll clears every indicator of userID, e.g. after their last connection closed.
func (uc *TypingUseCase) StopAll(userID string) {
	uc.mu.Lock()
	var keys []typingKey
	for key := range uc.entries {
		if key.userID == userID {
			keys = append(keys, key)
		}
	}
	uc.mu.Unlock()

	for _, key := range keys {
		uc.stop(key, 0)
	}
}

func (uc *TypingUseCase) expire(key typingKey, gen uint64) {
	uc.stop(key, gen)
}

// stop removes the entry for key. A non-zero gen only matches the timer that armed
// it, so a stale timer cannot remove a refreshed indicator.
func (uc *TypingUseCase) stop(key typingKey, gen uint64) {
	uc.mu.Lock()
	entry, ok := uc.entries[key]
	if !ok || (gen != 0 && entry.gen != gen) {
		uc.mu.Unlock()
		return
	}
	entry.timer.Stop()
	delete(uc.entries, key)
	indicator := entry.indicator
	uc.mu.Unlock()

	uc.publisher.PublishToConversation(key.conversationID, ws.EventTypingChanged, TypingEvent{
		ConversationID: key.conversationID,
		UserID:         key.userID,
		UserName:       indicator.UserName,
		Typing:         false,
	}, key.userID)
}

// ListTyping returns the active typers of a conversation except excludeUserID.
func (uc *TypingUseCase) ListTyping(conversationID, excludeUserID string) []entity.TypingIndicator {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	result := []entity.TypingIndicator{}
	for key, entry := range uc.entries {
		if key.conversationID == conversationID && key.userID != excludeUserID {
			result = append(result, entry.indicator)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result
}

// Close stops all timers. Later calls to StartTyping are ignored.
func (uc *TypingUseCase) Close() {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.closed = true
	for key, entry := range uc.entries {
		entry.timer.Stop()
		delete(uc.entries, key)
	}
}
