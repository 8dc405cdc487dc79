package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/repository"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/logger"
)

// Attachments live under conversations/{id}/attachments next to the messages.
const attachmentsSubcollection = "attachments"

type firestoreFileMetadataRepository struct {
	client *firestore.Client
}

func NewFirestoreFileMetadataRepository(client *firestore.Client) repository.FileMetadataRepository {
	return &firestoreFileMetadataRepository{
		client: client,
	}
}

func (r *firestoreFileMetadataRepository) attachments(conversationID string) *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection).Doc(conversationID).Collection(attachmentsSubcollection)
}

func (r *firestoreFileMetadataRepository) Create(ctx context.Context, metadata *entity.FileMetadata) error {
	if metadata.ID == "" {
		metadata.ID = uuid.New().String()
	}
	if metadata.CreatedAt.IsZero() {
		metadata.CreatedAt = time.Now()
	}

	if _, err := r.attachments(metadata.ConversationID).Doc(metadata.ID).Create(ctx, metadata); err != nil {
		return errors.Internal("Failed to record attachment", err)
	}
	return nil
}

func (r *firestoreFileMetadataRepository) LinkMessage(ctx context.Context, conversationID, id, messageID string) error {
	_, err := r.attachments(conversationID).Doc(id).Update(ctx, []firestore.Update{
		{Path: "messageId", Value: messageID},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Attachment", err)
		}
		return errors.Internal("Failed to link attachment", err)
	}
	return nil
}

func (r *firestoreFileMetadataRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.FileMetadata, error) {
	iter := r.attachments(conversationID).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var files []*entity.FileMetadata
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list attachments", err)
		}

		var metadata entity.FileMetadata
		if err := doc.DataTo(&metadata); err != nil {
			logger.Error("Skipping unreadable attachment %s/%s: %v", conversationID, doc.Ref.ID, err)
			continue
		}
		files = append(files, &metadata)
	}

	return files, nil
}

// Delete is a no-op for records that are already gone.
func (r *firestoreFileMetadataRepository) Delete(ctx context.Context, conversationID, id string) error {
	if _, err := r.attachments(conversationID).Doc(id).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete attachment record", err)
	}
	return nil
}
