package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "tailorchat/internal/infrastructure/websocket"
	"tailorchat/pkg/errors"
)

func TestTypingSelfHealsWithoutStop(t *testing.T) {
	env := newTestEnv()
	defer env.close()
	conv := env.conversation("")
	typing := NewTypingUseCase(env.convRepo, nil, env.publisher, 50*time.Millisecond)
	defer typing.Close()

	require.NoError(t, typing.StartTyping(context.Background(), conv.ID, "customer_1"))
	assert.Len(t, typing.ListTyping(conv.ID, "tailor_1"), 1)

	assert.Eventually(t, func() bool {
		return len(typing.ListTyping(conv.ID, "tailor_1")) == 0
	}, time.Second, 5*time.Millisecond)

	events := env.publisher.ofType(ws.EventTypingChanged)
	require.Len(t, events, 2)
	assert.True(t, events[0].Data.(TypingEvent).Typing)
	assert.False(t, events[1].Data.(TypingEvent).Typing)
	assert.Equal(t, "customer_1", events[1].Exclude)
}

func TestTypingRefreshKeepsIndicatorAlive(t *testing.T) {
	env := newTestEnv()
	defer env.close()
	conv := env.conversation("")
	typing := NewTypingUseCase(env.convRepo, nil, env.publisher, 80*time.Millisecond)
	defer typing.Close()
	ctx := context.Background()

	require.NoError(t, typing.StartTyping(ctx, conv.ID, "customer_1"))
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		require.NoError(t, typing.StartTyping(ctx, conv.ID, "customer_1"))
		assert.Len(t, typing.ListTyping(conv.ID, ""), 1)
	}

	// only the Idle->Typing edge is announced
	assert.Len(t, env.publisher.ofType(ws.EventTypingChanged), 1)
}

func TestStopTypingIsIdempotent(t *testing.T) {
	env := newTestEnv()
	defer env.close()
	conv := env.conversation("")
	ctx := context.Background()

	require.NoError(t, env.typing.StopTyping(ctx, conv.ID, "customer_1"))
	assert.Empty(t, env.publisher.ofType(ws.EventTypingChanged))

	require.NoError(t, env.typing.StartTyping(ctx, conv.ID, "customer_1"))
	require.NoError(t, env.typing.StopTyping(ctx, conv.ID, "customer_1"))
	require.NoError(t, env.typing.StopTyping(ctx, conv.ID, "customer_1"))
	assert.Len(t, env.publisher.ofType(ws.EventTypingChanged), 2)
}

func TestListTypingExcludesQuerier(t *testing.T) {
	env := newTestEnv()
	defer env.close()
	conv := env.conversation("")
	ctx := context.Background()

	require.NoError(t, env.typing.StartTyping(ctx, conv.ID, "customer_1"))
	require.NoError(t, env.typing.StartTyping(ctx, conv.ID, "tailor_1"))

	got := env.typing.ListTyping(conv.ID, "tailor_1")
	require.Len(t, got, 1)
	assert.Equal(t, "customer_1", got[0].UserID)
	assert.Equal(t, "Rina", got[0].UserName)
	assert.Len(t, env.typing.ListTyping(conv.ID, ""), 2)
}

func TestTypingRequiresParticipant(t *testing.T) {
	env := newTestEnv()
	defer env.close()
	conv := env.conversation("")

	err := env.typing.StartTyping(context.Background(), conv.ID, "stranger")
	assert.True(t, errors.Is(err, errors.CodeUnauthorizedSender))
}

func TestTypingNotifiesOnlineCounterpartElsewhere(t *testing.T) {
	env := newTestEnv()
	defer env.close()
	conv := env.conversation("")
	env.publisher.setOnline("tailor_1", true)

	require.NoError(t, env.typing.StartTyping(context.Background(), conv.ID, "customer_1"))

	notes := env.notifications.List("tailor_1")
	require.Len(t, notes, 1)
	assert.Equal(t, "Rina is typing", notes[0].Title)
}

func TestTypingCloseStopsTimers(t *testing.T) {
	env := newTestEnv()
	defer env.close()
	conv := env.conversation("")
	typing := NewTypingUseCase(env.convRepo, nil, env.publisher, time.Hour)

	require.NoError(t, typing.StartTyping(context.Background(), conv.ID, "customer_1"))
	typing.Close()

	assert.Empty(t, typing.ListTyping(conv.ID, ""))
	require.NoError(t, typing.StartTyping(context.Background(), conv.ID, "customer_1"))
	assert.Empty(t, typing.ListTyping(conv.ID, ""))
}
