package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/repository"
	"tailorchat/pkg/errors"
)

type memoryFileMetadataRepository struct {
	mu    sync.RWMutex
	files map[string]map[string]*entity.FileMetadata // conversation id -> attachment id
}

func NewMemoryFileMetadataRepository() repository.FileMetadataRepository {
	return &memoryFileMetadataRepository{
		files: make(map[string]map[string]*entity.FileMetadata),
	}
}

func (r *memoryFileMetadataRepository) Create(ctx context.Context, metadata *entity.FileMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if metadata.ID == "" {
		metadata.ID = uuid.New().String()
	}
	if metadata.CreatedAt.IsZero() {
		metadata.CreatedAt = time.Now()
	}

	byID, ok := r.files[metadata.ConversationID]
	if !ok {
		byID = make(map[string]*entity.FileMetadata)
		r.files[metadata.ConversationID] = byID
	}
	cp := *metadata
	byID[cp.ID] = &cp
	return nil
}

func (r *memoryFileMetadataRepository) LinkMessage(ctx context.Context, conversationID, id, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[conversationID][id]
	if !ok {
		return errors.NotFound("Attachment", nil)
	}
	f.MessageID = messageID
	return nil
}

func (r *memoryFileMetadataRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.FileMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entity.FileMetadata, 0, len(r.files[conversationID]))
	for _, f := range r.files[conversationID] {
		cp := *f
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memoryFileMetadataRepository) Delete(ctx context.Context, conversationID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.files[conversationID], id)
	return nil
}
