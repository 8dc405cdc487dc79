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

type memoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
	byPairKey     map[string]string
	now           func() time.Time
}

func NewMemoryConversationRepository() repository.ConversationRepository {
	return &memoryConversationRepository{
		conversations: make(map[string]*entity.Conversation),
		byPairKey:     make(map[string]string),
		now:           time.Now,
	}
}

func (r *memoryConversationRepository) CreateIfAbsent(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byPairKey[conv.PairKey]; ok {
		if existing := r.conversations[id]; existing != nil && existing.IsActive {
			return existing.Clone(), false, nil
		}
	}

	if conv.ID == "" {
		conv.ID = ConversationID(conv.PairKey)
		if _, taken := r.conversations[conv.ID]; taken {
			// an archived conversation holds the deterministic id
			conv.ID = uuid.New().String()
		}
	}
	now := r.now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	conv.IsActive = true
	if conv.UnreadCount == nil {
		conv.UnreadCount = make(map[string]int)
	}

	stored := conv.Clone()
	r.conversations[stored.ID] = stored
	r.byPairKey[stored.PairKey] = stored.ID

	return stored.Clone(), true, nil
}

func (r *memoryConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, errors.UnknownConversation(id)
	}
	return conv.Clone(), nil
}

func (r *memoryConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.Conversation
	for _, conv := range r.conversations {
		if conv.HasParticipant(userID) {
			result = append(result, conv.Clone())
		}
	}
	sortByUpdatedDesc(result)
	return result, nil
}

func (r *memoryConversationRepository) ListByOrderID(ctx context.Context, orderID string) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.Conversation
	for _, conv := range r.conversations {
		if orderID != "" && conv.OrderID == orderID {
			result = append(result, conv.Clone())
		}
	}
	sortByUpdatedDesc(result)
	return result, nil
}

func (r *memoryConversationRepository) ApplyMessage(ctx context.Context, msg *entity.Message, incrementUnreadFor string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[msg.ConversationID]
	if !ok {
		return nil, errors.UnknownConversation(msg.ConversationID)
	}

	applyMessage(conv, msg, incrementUnreadFor, r.now())
	return conv.Clone(), nil
}

func (r *memoryConversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return nil, errors.UnknownConversation(conversationID)
	}

	if conv.UnreadCount == nil {
		conv.UnreadCount = make(map[string]int)
	}
	conv.UnreadCount[userID] = 0
	conv.UpdatedAt = r.now()
	return conv.Clone(), nil
}

func (r *memoryConversationRepository) UpdateParticipantPresence(ctx context.Context, userID string, online bool, at time.Time) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated []*entity.Conversation
	for _, conv := range r.conversations {
		if !conv.HasParticipant(userID) {
			continue
		}
		applyPresence(conv, userID, online, at)
		updated = append(updated, conv.Clone())
	}
	sortByUpdatedDesc(updated)
	return updated, nil
}

// applyMessage is shared by the memory and Firestore stores so both keep the
// same monotonic summary rules.
func applyMessage(conv *entity.Conversation, msg *entity.Message, incrementUnreadFor string, now time.Time) {
	if msg.Seq > conv.LastSeq {
		conv.LastSeq = msg.Seq
		conv.LastMessage = msg.Clone()
		conv.LastMessage.IsRead = false
	}
	if incrementUnreadFor != "" {
		if conv.UnreadCount == nil {
			conv.UnreadCount = make(map[string]int)
		}
		conv.UnreadCount[incrementUnreadFor]++
	}
	conv.UpdatedAt = now
}

func applyPresence(conv *entity.Conversation, userID string, online bool, at time.Time) {
	if conv.Participants == nil {
		conv.Participants = make(map[string]entity.Participant)
	}
	p := conv.Participants[userID]
	p.ID = userID
	p.IsOnline = online
	p.LastSeen = at
	conv.Participants[userID] = p
	conv.UpdatedAt = at
}

func sortByUpdatedDesc(convs []*entity.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		if convs[i].UpdatedAt.Equal(convs[j].UpdatedAt) {
			return convs[i].ID < convs[j].ID
		}
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
}
