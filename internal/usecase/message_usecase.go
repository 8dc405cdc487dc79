package usecase

import (
	"context"
	"log"
	"strings"
	"sync"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/repository"
	"tailorchat/internal/infrastructure/ratelimit"
	ws "tailorchat/internal/infrastructure/websocket"
	"tailorchat/pkg/errors"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// MessageUseCase owns the append-only message log of every conversation.
type MessageUseCase struct {
	messageRepo   repository.MessageRepository
	convRepo      repository.ConversationRepository
	conversations *ConversationUseCase
	notifications *NotificationUseCase
	typing        *TypingUseCase
	publisher     Publisher
	rateLimiter   *ratelimit.RateLimiter
	pageLimit     int
	publishLocks  keyedMutex
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	conversations *ConversationUseCase,
	notifications *NotificationUseCase,
	typing *TypingUseCase,
	publisher Publisher,
	rateLimiter *ratelimit.RateLimiter,
	pageLimit int,
) *MessageUseCase {
	if pageLimit <= 0 || pageLimit > MaxPageLimit {
		pageLimit = DefaultPageLimit
	}
	return &MessageUseCase{
		messageRepo:   messageRepo,
		convRepo:      convRepo,
		conversations: conversations,
		notifications: notifications,
		typing:        typing,
		publisher:     publisherOrNop(publisher),
		rateLimiter:   rateLimiter,
		pageLimit:     pageLimit,
	}
}

type AppendInput struct {
	ConversationID string
	SenderID       string
	Content        string
	Type           entity.MessageType
	Attachment     *entity.AttachmentRef
	Measurement    *entity.Measurement
	TempID         string
}

type MessagePage struct {
	Messages   []*entity.Message `json:"messages"`
	NextCursor int64             `json:"next_cursor"`
	HasMore    bool              `json:"has_more"`
}

// Append validates and stores a message, then updates the conversation summary,
// notifies the recipient and pushes message.created to the room.
func (uc *MessageUseCase) Append(ctx context.Context, input AppendInput) (*entity.Message, error) {
	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(input.SenderID, ratelimit.ActionSendMessage); !allowed {
			log.Printf("SendMessage Rate Limited: User %s must wait %v", input.SenderID, wait)
			return nil, errors.TooManyRequests("You are sending messages too quickly").
				WithDetails(map[string]string{"draft": input.Content})
		}
	}
	return uc.append(ctx, input)
}

func (uc *MessageUseCase) append(ctx context.Context, input AppendInput) (*entity.Message, error) {
	conv, err := uc.convRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(input.SenderID) {
		log.Printf("SendMessage Error: User %s is not a participant of %s", input.SenderID, input.ConversationID)
		return nil, errors.UnauthorizedSender(input.SenderID, input.ConversationID)
	}

	msgType := input.Type
	if msgType == "" {
		msgType = entity.MessageTypeText
	}
	if msgType == entity.MessageTypeSystem {
		return nil, errors.BadRequest("System messages cannot be sent by participants", nil)
	}

	sender := conv.Participants[input.SenderID]
	msg := &entity.Message{
		ConversationID: conv.ID,
		SenderID:       input.SenderID,
		SenderName:     displayName(sender.Name, input.SenderID),
		SenderAvatar:   sender.AvatarURL,
		RecipientID:    conv.Counterpart(input.SenderID),
		Content:        strings.TrimSpace(input.Content),
		Type:           msgType,
		Attachment:     input.Attachment,
		Measurement:    input.Measurement,
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.BadRequest(err.Error(), err).WithDetails(map[string]string{"draft": input.Content})
	}

	stored, err := uc.commit(ctx, msg, input.TempID)
	if err != nil {
		if errors.Is(err, errors.CodeUnknownConversation) {
			return nil, err
		}
		log.Printf("SendMessage Error: append to %s failed: %v", conv.ID, err)
		return nil, errors.SendFailed(input.Content, err)
	}

	uc.afterAppend(ctx, stored)
	return stored, nil
}

// AppendSystem stores a system message. Sender authorization does not apply.
func (uc *MessageUseCase) AppendSystem(ctx context.Context, conversationID, event, content string, data map[string]string) (*entity.Message, error) {
	if _, err := uc.convRepo.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ConversationID: conversationID,
		SenderID:       entity.SystemSenderID,
		SenderName:     "System",
		Content:        content,
		Type:           entity.MessageTypeSystem,
		System:         &entity.SystemEvent{Event: event, Data: data},
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.BadRequest(err.Error(), err)
	}

	stored, err := uc.commit(ctx, msg, "")
	if err != nil {
		if errors.Is(err, errors.CodeUnknownConversation) {
			return nil, err
		}
		return nil, errors.SendFailed(content, err)
	}

	uc.afterAppend(ctx, stored)
	return stored, nil
}

// commit appends msg and pushes message.created while holding the conversation's
// publish lock, so pushes to a room leave in seq order.
func (uc *MessageUseCase) commit(ctx context.Context, msg *entity.Message, tempID string) (*entity.Message, error) {
	unlock := uc.publishLocks.lock(msg.ConversationID)
	defer unlock()

	stored, err := uc.messageRepo.Append(ctx, msg)
	if err != nil {
		return nil, err
	}
	uc.publisher.PublishToConversation(stored.ConversationID, ws.EventMessageCreated, MessageEvent{Message: stored, TempID: tempID}, "")
	return stored, nil
}

func (uc *MessageUseCase) afterAppend(ctx context.Context, msg *entity.Message) {
	recipientActive := msg.RecipientID != "" && uc.publisher.IsViewing(msg.RecipientID, msg.ConversationID)

	_, err := uc.conversations.RecordMessage(ctx, msg, recipientActive)
	logFollowUp(msg.ConversationID, "record_message", err)

	if msg.Type != entity.MessageTypeSystem {
		if uc.typing != nil {
			uc.typing.clear(msg.ConversationID, msg.SenderID)
		}
		if uc.notifications != nil && msg.RecipientID != "" && !recipientActive {
			uc.notifications.Notify(ctx, msg.RecipientID, messageNotification(msg))
		}
	}
}

// List returns messages with seq > afterSeq in ascending order.
func (uc *MessageUseCase) List(ctx context.Context, actorID, conversationID string, afterSeq int64, limit int) (*MessagePage, error) {
	conv, err := uc.conversations.GetConversation(ctx, actorID, conversationID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = uc.pageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	messages, err := uc.messageRepo.List(ctx, conversationID, afterSeq, limit+1)
	if err != nil {
		return nil, err
	}

	page := &MessagePage{NextCursor: afterSeq}
	if len(messages) > limit {
		page.HasMore = true
		messages = messages[:limit]
	}
	if n := len(messages); n > 0 {
		page.NextCursor = messages[n-1].Seq
	}

	cursors := make(map[string]int64, len(conv.ParticipantIDs))
	for _, id := range conv.ParticipantIDs {
		cursor, err := uc.messageRepo.ReadCursor(ctx, conversationID, id)
		if err != nil {
			return nil, err
		}
		cursors[id] = cursor
	}
	for _, m := range messages {
		reader := m.RecipientID
		if reader == "" {
			reader = actorID
		}
		m.IsRead = m.Seq <= cursors[reader]
	}

	page.Messages = messages
	return page, nil
}

// MarkRead advances the actor's read cursor to messageID, or to the latest message
// when messageID is empty. The latter also clears the actor's unread counter.
func (uc *MessageUseCase) MarkRead(ctx context.Context, actorID, conversationID, messageID string) (int64, error) {
	if _, err := uc.conversations.GetConversation(ctx, actorID, conversationID); err != nil {
		return 0, err
	}

	var target int64
	if messageID != "" {
		msg, err := uc.messageRepo.GetByID(ctx, conversationID, messageID)
		if err != nil {
			return 0, err
		}
		target = msg.Seq
	} else {
		latest, err := uc.messageRepo.LatestSeq(ctx, conversationID)
		if err != nil {
			return 0, err
		}
		target = latest
	}

	cursor, err := uc.messageRepo.AdvanceReadCursor(ctx, conversationID, actorID, target)
	if err != nil {
		return 0, err
	}

	if messageID == "" {
		_, err := uc.conversations.MarkRead(ctx, actorID, conversationID)
		logFollowUp(conversationID, "reset_unread", err)
	}

	uc.publisher.PublishToConversation(conversationID, ws.EventMessageRead, ReadEvent{
		ConversationID: conversationID,
		ReaderID:       actorID,
		Seq:            cursor,
	}, "")
	return cursor, nil
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
