package handler

import (
	"context"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/infrastructure/ratelimit"
	ws "tailorchat/internal/infrastructure/websocket"
	"tailorchat/internal/usecase"
)

// WSCommands runs WebSocket client commands through the same use cases as the
// HTTP handlers.
type WSCommands struct {
	conversations *usecase.ConversationUseCase
	messages      *usecase.MessageUseCase
	typing        *usecase.TypingUseCase
	rateLimiter   *ratelimit.RateLimiter
}

var _ ws.Commands = (*WSCommands)(nil)

func NewWSCommands(conversations *usecase.ConversationUseCase, messages *usecase.MessageUseCase, typing *usecase.TypingUseCase, rateLimiter *ratelimit.RateLimiter) *WSCommands {
	return &WSCommands{
		conversations: conversations,
		messages:      messages,
		typing:        typing,
		rateLimiter:   rateLimiter,
	}
}

func (w *WSCommands) SendMessage(ctx context.Context, userID, conversationID string, data ws.SendMessageData) error {
	_, err := w.messages.Append(ctx, usecase.AppendInput{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        data.Content,
		Type:           entity.MessageType(data.Type),
		TempID:         data.TempID,
	})
	return err
}

// StartTyping drops refreshes beyond the typing rate; the indicator stays alive
// until its timer runs out anyway.
func (w *WSCommands) StartTyping(ctx context.Context, userID, conversationID string) error {
	if w.rateLimiter != nil {
		if allowed, _ := w.rateLimiter.Allow(userID, ratelimit.ActionTyping); !allowed {
			return nil
		}
	}
	return w.typing.StartTyping(ctx, conversationID, userID)
}

func (w *WSCommands) StopTyping(ctx context.Context, userID, conversationID string) error {
	return w.typing.StopTyping(ctx, conversationID, userID)
}

func (w *WSCommands) AuthorizeRoom(ctx context.Context, userID, conversationID string) error {
	_, err := w.conversations.GetConversation(ctx, userID, conversationID)
	return err
}

func (w *WSCommands) MarkRead(ctx context.Context, userID, conversationID, messageID string) error {
	_, err := w.messages.MarkRead(ctx, userID, conversationID, messageID)
	return err
}
