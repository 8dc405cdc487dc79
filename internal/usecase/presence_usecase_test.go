package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorchat/internal/domain/entity"
	ws "tailorchat/internal/infrastructure/websocket"
)

func TestConnectedPublishesOncePerCounterpart(t *testing.T) {
	env := newTestEnv()
	defer env.close()
	ctx := context.Background()
	first := env.conversation("order_1")
	env.conversation("order_2")
	env.publisher.setOnline("tailor_1", true)

	env.presence.Connected(ctx, "customer_1")

	events := env.publisher.ofType(ws.EventPresenceChanged)
	require.Len(t, events, 1)
	assert.Equal(t, "tailor_1", events[0].UserID)
	assert.True(t, events[0].Data.(PresenceEvent).IsOnline)

	notes := env.notifications.List("tailor_1")
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationOnline, notes[0].Type)
	assert.Equal(t, "Rina is online", notes[0].Title)

	conv, err := env.conversations.GetConversation(ctx, "tailor_1", first.ID)
	require.NoError(t, err)
	assert.True(t, conv.Participants["customer_1"].IsOnline)
}

func TestConnectedSkipsNotificationForOfflineCounterpart(t *testing.T) {
	env := newTestEnv()
	defer env.close()
	env.conversation("")

	env.presence.Connected(context.Background(), "customer_1")

	assert.Len(t, env.publisher.ofType(ws.EventPresenceChanged), 1)
	assert.Empty(t, env.notifications.List("tailor_1"))
}

func TestDisconnectedClearsTypingAndRecordsLastSeen(t *testing.T) {
	env := newTestEnv()
	defer env.close()
	ctx := context.Background()
	conv := env.conversation("")

	env.presence.Connected(ctx, "customer_1")
	require.NoError(t, env.typing.StartTyping(ctx, conv.ID, "customer_1"))

	env.presence.Disconnected(ctx, "customer_1")

	assert.Empty(t, env.typing.ListTyping(conv.ID, ""))
	stored, err := env.conversations.GetConversation(ctx, "tailor_1", conv.ID)
	require.NoError(t, err)
	p := stored.Participants["customer_1"]
	assert.False(t, p.IsOnline)
	assert.False(t, p.LastSeen.IsZero())

	events := env.publisher.ofType(ws.EventPresenceChanged)
	require.Len(t, events, 2)
	assert.False(t, events[1].Data.(PresenceEvent).IsOnline)
}

func TestPresenceForUserWithoutConversations(t *testing.T) {
	env := newTestEnv()
	defer env.close()

	env.presence.Connected(context.Background(), "lonely")
	assert.Empty(t, env.publisher.ofType(ws.EventPresenceChanged))
}
