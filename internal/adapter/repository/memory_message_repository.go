package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/repository"
	"tailorchat/pkg/errors"
)

// messageLog is the append-only log of one conversation. Its mutex is the single
// authority for sequence and timestamp assignment.
type messageLog struct {
	mu       sync.Mutex
	messages []*entity.Message
	byID     map[string]int
	cursors  map[string]int64
}

type memoryMessageRepository struct {
	mu   sync.Mutex
	logs map[string]*messageLog
	now  func() time.Time
}

func NewMemoryMessageRepository() repository.MessageRepository {
	return newMemoryMessageRepository(time.Now)
}

func newMemoryMessageRepository(now func() time.Time) *memoryMessageRepository {
	return &memoryMessageRepository{
		logs: make(map[string]*messageLog),
		now:  now,
	}
}

func (r *memoryMessageRepository) log(conversationID string) *messageLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.logs[conversationID]
	if !ok {
		l = &messageLog{
			byID:    make(map[string]int),
			cursors: make(map[string]int64),
		}
		r.logs[conversationID] = l
	}
	return l
}

func (r *memoryMessageRepository) Append(ctx context.Context, message *entity.Message) (*entity.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := r.log(message.ConversationID)
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := message.Clone()
	if stored.ID == "" {
		stored.ID = newMessageID()
	}
	if _, dup := l.byID[stored.ID]; dup {
		return nil, errors.Conflict("message id already exists")
	}

	stored.Seq = int64(len(l.messages)) + 1
	stored.Timestamp = r.now()
	if n := len(l.messages); n > 0 && stored.Timestamp.Before(l.messages[n-1].Timestamp) {
		stored.Timestamp = l.messages[n-1].Timestamp
	}
	stored.IsRead = false

	l.byID[stored.ID] = len(l.messages)
	l.messages = append(l.messages, stored)

	return stored.Clone(), nil
}

func (r *memoryMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	l := r.log(conversationID)
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.byID[messageID]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	return l.messages[idx].Clone(), nil
}

func (r *memoryMessageRepository) List(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]*entity.Message, error) {
	l := r.log(conversationID)
	l.mu.Lock()
	defer l.mu.Unlock()

	// Seq n lives at index n-1.
	start := int(afterSeq)
	if start < 0 {
		start = 0
	}
	if start >= len(l.messages) {
		return []*entity.Message{}, nil
	}
	end := len(l.messages)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	result := make([]*entity.Message, 0, end-start)
	for _, m := range l.messages[start:end] {
		result = append(result, m.Clone())
	}
	return result, nil
}

func (r *memoryMessageRepository) LatestSeq(ctx context.Context, conversationID string) (int64, error) {
	l := r.log(conversationID)
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(len(l.messages)), nil
}

func (r *memoryMessageRepository) AdvanceReadCursor(ctx context.Context, conversationID, readerID string, seq int64) (int64, error) {
	l := r.log(conversationID)
	l.mu.Lock()
	defer l.mu.Unlock()

	if max := int64(len(l.messages)); seq > max {
		seq = max
	}
	if seq > l.cursors[readerID] {
		l.cursors[readerID] = seq
	}
	return l.cursors[readerID], nil
}

func (r *memoryMessageRepository) ReadCursor(ctx context.Context, conversationID, readerID string) (int64, error) {
	l := r.log(conversationID)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursors[readerID], nil
}

// sortBySeq orders messages ascending; used where a backend returns them unordered.
func sortBySeq(messages []*entity.Message) {
	sort.Slice(messages, func(i, j int) bool { return messages[i].Seq < messages[j].Seq })
}
