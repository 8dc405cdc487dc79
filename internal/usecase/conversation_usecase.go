package usecase

import (
	"context"
	"log"
	"time"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/repository"
	"tailorchat/internal/domain/service"
	"tailorchat/internal/infrastructure/ratelimit"
	ws "tailorchat/internal/infrastructure/websocket"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/logger"
)

// ConversationUseCase is the registry of conversations and their summaries.
type ConversationUseCase struct {
	convRepo    repository.ConversationRepository
	directory   service.ParticipantDirectory
	publisher   Publisher
	rateLimiter *ratelimit.RateLimiter
}

func NewConversationUseCase(
	convRepo repository.ConversationRepository,
	directory service.ParticipantDirectory,
	publisher Publisher,
	rateLimiter *ratelimit.RateLimiter,
) *ConversationUseCase {
	return &ConversationUseCase{
		convRepo:    convRepo,
		directory:   directory,
		publisher:   publisherOrNop(publisher),
		rateLimiter: rateLimiter,
	}
}

type CreateConversationInput struct {
	ParticipantIDs []string
	RecipientID    string
	OrderID        string
	RequireNew     bool
}

func (uc *ConversationUseCase) CreateConversation(ctx context.Context, actorID string, input CreateConversationInput) (*entity.Conversation, bool, error) {
	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(actorID, ratelimit.ActionCreateConversation); !allowed {
			log.Printf("CreateConversation Rate Limited: User %s must wait %v", actorID, wait)
			return nil, false, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another conversation")
		}
	}

	a, b, err := resolvePair(actorID, input)
	if err != nil {
		return nil, false, err
	}

	participants := make(map[string]entity.Participant, 2)
	for _, id := range []string{a, b} {
		p, err := uc.directory.Lookup(ctx, id)
		if err != nil {
			log.Printf("CreateConversation Error: participant %s lookup failed: %v", id, err)
			return nil, false, err
		}
		p.ID = id
		p.IsOnline = uc.publisher.IsOnline(id)
		participants[id] = p
	}

	conv := &entity.Conversation{
		ParticipantIDs: entity.SortedPair(a, b),
		Participants:   participants,
		OrderID:        input.OrderID,
		PairKey:        entity.PairKey(a, b, input.OrderID),
		UnreadCount:    map[string]int{a: 0, b: 0},
	}

	stored, created, err := uc.convRepo.CreateIfAbsent(ctx, conv)
	if err != nil {
		log.Printf("CreateConversation Error: %v", err)
		return nil, false, err
	}

	if !created {
		if input.RequireNew {
			return nil, false, errors.DuplicateConversation(stored.ID)
		}
		return stored, false, nil
	}

	log.Printf("CreateConversation: %s created by %s (order=%q)", stored.ID, actorID, stored.OrderID)
	uc.broadcastUpdate(stored)
	return stored, true, nil
}

func resolvePair(actorID string, input CreateConversationInput) (string, string, error) {
	var a, b string
	switch {
	case input.RecipientID != "":
		a, b = actorID, input.RecipientID
	case len(input.ParticipantIDs) == 2:
		a, b = input.ParticipantIDs[0], input.ParticipantIDs[1]
	default:
		return "", "", errors.BadRequest("A conversation needs exactly two participants", nil)
	}

	if a == "" || b == "" {
		return "", "", errors.BadRequest("Participant ids must not be empty", nil)
	}
	if a == b {
		return "", "", errors.BadRequest("You cannot start a conversation with yourself", nil)
	}
	if actorID != a && actorID != b {
		return "", "", errors.Forbidden("You can only start conversations you take part in", nil)
	}
	return a, b, nil
}

// ListConversations returns the participant's conversations, most recently updated first.
func (uc *ConversationUseCase) ListConversations(ctx context.Context, participantID string) ([]*entity.Conversation, error) {
	conversations, err := uc.convRepo.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if conversations == nil {
		conversations = []*entity.Conversation{}
	}
	return conversations, nil
}

func (uc *ConversationUseCase) GetConversation(ctx context.Context, actorID, conversationID string) (*entity.Conversation, error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(actorID) {
		return nil, errors.Forbidden("You are not a participant of this conversation", nil)
	}
	return conv, nil
}

// MarkRead zeroes the actor's unread counter. Message read state is untouched.
func (uc *ConversationUseCase) MarkRead(ctx context.Context, actorID, conversationID string) (*entity.Conversation, error) {
	if _, err := uc.GetConversation(ctx, actorID, conversationID); err != nil {
		return nil, err
	}

	conv, err := uc.convRepo.ResetUnread(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}

	uc.publisher.PublishToUser(actorID, ws.EventConversationUpdated, conv)
	return conv, nil
}

// RecordMessage folds an appended message into the conversation summary.
func (uc *ConversationUseCase) RecordMessage(ctx context.Context, msg *entity.Message, recipientActive bool) (*entity.Conversation, error) {
	incrementFor := msg.RecipientID
	if recipientActive || msg.Type == entity.MessageTypeSystem {
		incrementFor = ""
	}

	conv, err := uc.convRepo.ApplyMessage(ctx, msg, incrementFor)
	if err != nil {
		return nil, err
	}

	uc.broadcastUpdate(conv)
	return conv, nil
}

// UpdatePresence refreshes userID's participant entry in each of their conversations.
func (uc *ConversationUseCase) UpdatePresence(ctx context.Context, userID string, online bool, at time.Time) ([]*entity.Conversation, error) {
	return uc.convRepo.UpdateParticipantPresence(ctx, userID, online, at)
}

func (uc *ConversationUseCase) ConversationsForOrder(ctx context.Context, orderID string) ([]*entity.Conversation, error) {
	if orderID == "" {
		return nil, errors.BadRequest("Order id is required", nil)
	}
	return uc.convRepo.ListByOrderID(ctx, orderID)
}

func (uc *ConversationUseCase) broadcastUpdate(conv *entity.Conversation) {
	for _, id := range conv.ParticipantIDs {
		uc.publisher.PublishToUser(id, ws.EventConversationUpdated, conv)
	}
}

// logFollowUp records a failed side effect of an operation that already succeeded.
func logFollowUp(conversationID, action string, err error) {
	if err != nil {
		logger.FollowUpFailed(conversationID, action, err)
	}
}
