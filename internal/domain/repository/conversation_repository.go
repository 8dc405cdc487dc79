package repository

import (
	"context"
	"time"

	"tailorchat/internal/domain/entity"
)

type ConversationRepository interface {
	// CreateIfAbsent stores conv unless an active conversation with the same PairKey
	// exists, in which case the existing one is returned with created=false.
	CreateIfAbsent(ctx context.Context, conv *entity.Conversation) (stored *entity.Conversation, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error)
	ListByOrderID(ctx context.Context, orderID string) ([]*entity.Conversation, error)

	// ApplyMessage moves LastMessage forward only when msg.Seq is newer and
	// increments the unread counter of incrementUnreadFor (when non-empty).
	ApplyMessage(ctx context.Context, msg *entity.Message, incrementUnreadFor string) (*entity.Conversation, error)
	ResetUnread(ctx context.Context, conversationID, userID string) (*entity.Conversation, error)
	UpdateParticipantPresence(ctx context.Context, userID string, online bool, at time.Time) ([]*entity.Conversation, error)
}
