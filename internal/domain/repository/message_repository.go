package repository

import (
	"context"

	"tailorchat/internal/domain/entity"
)

type MessageRepository interface {
	// Append assigns ID, Seq and Timestamp inside a single per-conversation
	// critical section and stores the message.
	Append(ctx context.Context, message *entity.Message) (*entity.Message, error)
	GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)
	// List returns up to limit messages with Seq > afterSeq in ascending Seq order.
	List(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]*entity.Message, error)
	LatestSeq(ctx context.Context, conversationID string) (int64, error)

	// AdvanceReadCursor raises the reader's cursor to seq and returns the resulting
	// cursor; it never moves backwards.
	AdvanceReadCursor(ctx context.Context, conversationID, readerID string, seq int64) (int64, error)
	ReadCursor(ctx context.Context, conversationID, readerID string) (int64, error)
}
