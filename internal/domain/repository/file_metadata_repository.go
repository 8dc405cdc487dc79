package repository

import (
	"context"

	"tailorchat/internal/domain/entity"
)

// FileMetadataRepository records uploaded attachments, scoped to their conversation.
// A record without a MessageID belongs to an upload that has not been published yet.
type FileMetadataRepository interface {
	Create(ctx context.Context, metadata *entity.FileMetadata) error
	LinkMessage(ctx context.Context, conversationID, id, messageID string) error
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.FileMetadata, error)
	Delete(ctx context.Context, conversationID, id string) error
}
