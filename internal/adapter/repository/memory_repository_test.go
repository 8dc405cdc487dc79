package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorchat/internal/domain/entity"
	"tailorchat/pkg/errors"
)

func newConversation(a, b, orderID string) *entity.Conversation {
	return &entity.Conversation{
		ParticipantIDs: entity.SortedPair(a, b),
		OrderID:        orderID,
		PairKey:        entity.PairKey(a, b, orderID),
	}
}

func TestCreateIfAbsentIsIdempotentUnderConcurrency(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	const workers = 16
	ids := make([]string, workers)
	created := make([]bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, ok, err := repo.CreateIfAbsent(ctx, newConversation("u1", "t1", "order_1"))
			require.NoError(t, err)
			ids[i], created[i] = conv.ID, ok
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for i := range ids {
		assert.Equal(t, ids[0], ids[i])
		if created[i] {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)

	list, err := repo.ListByParticipant(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDifferentOrdersGetDifferentConversations(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	a, _, err := repo.CreateIfAbsent(ctx, newConversation("u1", "t1", "order_1"))
	require.NoError(t, err)
	b, _, err := repo.CreateIfAbsent(ctx, newConversation("t1", "u1", "order_2"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)

	byOrder, err := repo.ListByOrderID(ctx, "order_2")
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, b.ID, byOrder[0].ID)
}

func TestApplyMessageNeverMovesLastMessageBackwards(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	conv, _, err := repo.CreateIfAbsent(ctx, newConversation("u1", "t1", ""))
	require.NoError(t, err)

	_, err = repo.ApplyMessage(ctx, &entity.Message{ConversationID: conv.ID, Seq: 2, Content: "second"}, "t1")
	require.NoError(t, err)
	updated, err := repo.ApplyMessage(ctx, &entity.Message{ConversationID: conv.ID, Seq: 1, Content: "first"}, "t1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), updated.LastSeq)
	assert.Equal(t, "second", updated.LastMessage.Content)
	assert.Equal(t, 2, updated.UnreadCount["t1"])

	reset, err := repo.ResetUnread(ctx, conv.ID, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, reset.UnreadCount["t1"])
}

func TestUnknownConversation(t *testing.T) {
	repo := NewMemoryConversationRepository()

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, errors.CodeUnknownConversation))
}

func TestListByParticipantSortedByUpdatedDesc(t *testing.T) {
	repo := NewMemoryConversationRepository().(*memoryConversationRepository)
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, _, _ := repo.CreateIfAbsent(ctx, newConversation("u1", "t1", ""))
	second, _, _ := repo.CreateIfAbsent(ctx, newConversation("u1", "t2", ""))
	_, err := repo.ApplyMessage(ctx, &entity.Message{ConversationID: first.ID, Seq: 1}, "")
	require.NoError(t, err)

	list, err := repo.ListByParticipant(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestAppendAssignsDenseSequenceUnderConcurrency(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	const perSender = 50
	var wg sync.WaitGroup
	for _, sender := range []string{"u1", "t1"} {
		wg.Add(1)
		go func(sender string) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				_, err := repo.Append(ctx, &entity.Message{ConversationID: "c1", SenderID: sender, Content: fmt.Sprint(i), Type: entity.MessageTypeText})
				require.NoError(t, err)
			}
		}(sender)
	}
	wg.Wait()

	messages, err := repo.List(ctx, "c1", 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2*perSender)
	for i, m := range messages {
		assert.Equal(t, int64(i+1), m.Seq)
		if i > 0 {
			assert.False(t, m.Timestamp.Before(messages[i-1].Timestamp))
		}
	}

	latest, err := repo.LatestSeq(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(2*perSender), latest)
}

func TestAppendClampsTimestampToPrevious(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 1, 1, 10, 0, 5, 0, time.UTC),
		time.Date(2026, 1, 1, 10, 0, 1, 0, time.UTC), // clock stepped back
	}
	i := 0
	repo := newMemoryMessageRepository(func() time.Time {
		t := times[i]
		i++
		return t
	})
	ctx := context.Background()

	first, err := repo.Append(ctx, &entity.Message{ConversationID: "c1", Content: "a", Type: entity.MessageTypeText})
	require.NoError(t, err)
	second, err := repo.Append(ctx, &entity.Message{ConversationID: "c1", Content: "b", Type: entity.MessageTypeText})
	require.NoError(t, err)

	assert.Equal(t, first.Timestamp, second.Timestamp)
	assert.Greater(t, second.Seq, first.Seq)
}

func TestListPagesAreDisjointAndOrdered(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := repo.Append(ctx, &entity.Message{ConversationID: "c1", Content: fmt.Sprint(i), Type: entity.MessageTypeText})
		require.NoError(t, err)
	}

	page1, err := repo.List(ctx, "c1", 0, 2)
	require.NoError(t, err)
	page2, err := repo.List(ctx, "c1", page1[len(page1)-1].Seq, 2)
	require.NoError(t, err)
	page3, err := repo.List(ctx, "c1", page2[len(page2)-1].Seq, 2)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, seqs(page1))
	assert.Equal(t, []int64{3, 4}, seqs(page2))
	assert.Equal(t, []int64{5}, seqs(page3))

	empty, err := repo.List(ctx, "c1", 5, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReadCursorIsMonotonicAndCapped(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := repo.Append(ctx, &entity.Message{ConversationID: "c1", Content: "x", Type: entity.MessageTypeText})
		require.NoError(t, err)
	}

	cursor, err := repo.AdvanceReadCursor(ctx, "c1", "t1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cursor)

	cursor, err = repo.AdvanceReadCursor(ctx, "c1", "t1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cursor)

	cursor, err = repo.AdvanceReadCursor(ctx, "c1", "t1", 99)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cursor)

	got, err := repo.ReadCursor(ctx, "c1", "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestAppendHonoursCancelledContext(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Append(ctx, &entity.Message{ConversationID: "c1", Content: "x", Type: entity.MessageTypeText})
	assert.ErrorIs(t, err, context.Canceled)

	latest, _ := repo.LatestSeq(context.Background(), "c1")
	assert.Equal(t, int64(0), latest)
}

func TestFileMetadataLifecycle(t *testing.T) {
	repo := NewMemoryFileMetadataRepository()
	ctx := context.Background()

	meta := &entity.FileMetadata{ConversationID: "c1", Filename: "a.pdf", FileSize: 3}
	require.NoError(t, repo.Create(ctx, meta))
	require.NotEmpty(t, meta.ID)
	require.NoError(t, repo.Create(ctx, &entity.FileMetadata{ConversationID: "c2", Filename: "b.pdf"}))

	require.NoError(t, repo.LinkMessage(ctx, "c1", meta.ID, "m1"))
	err := repo.LinkMessage(ctx, "c2", meta.ID, "m1")
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	list, err := repo.ListByConversation(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "m1", list[0].MessageID)

	require.NoError(t, repo.Delete(ctx, "c1", meta.ID))
	require.NoError(t, repo.Delete(ctx, "c1", meta.ID))
	list, err = repo.ListByConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func seqs(messages []*entity.Message) []int64 {
	out := make([]int64, len(messages))
	for i, m := range messages {
		out[i] = m.Seq
	}
	return out
}
