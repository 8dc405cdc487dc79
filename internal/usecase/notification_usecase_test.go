package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorchat/internal/domain/entity"
	ws "tailorchat/internal/infrastructure/websocket"
)

func note(i int) NotificationEvent {
	return NotificationEvent{Type: entity.NotificationMessage, Title: fmt.Sprint(i)}
}

func TestNotificationCapEvictsOldest(t *testing.T) {
	publisher := newRecordingPublisher()
	uc := NewNotificationUseCase(publisher, 10, time.Minute)
	defer uc.Close()

	for i := 1; i <= 11; i++ {
		uc.Notify(context.Background(), "u1", note(i))
	}

	list := uc.List("u1")
	require.Len(t, list, 10)
	assert.Equal(t, "11", list[0].Title)
	assert.Equal(t, "2", list[9].Title)
	assert.Len(t, publisher.ofType(ws.EventNotificationCreated), 11)
}

func TestUnreadNotificationExpires(t *testing.T) {
	uc := NewNotificationUseCase(nil, 10, 30*time.Millisecond)
	defer uc.Close()

	n := uc.Notify(context.Background(), "u1", note(1))
	assert.Len(t, uc.List("u1"), 1)

	assert.Eventually(t, func() bool { return len(uc.List("u1")) == 0 }, time.Second, 5*time.Millisecond)

	// dismissing after expiry is a no-op
	uc.Dismiss("u1", n.ID)
	assert.False(t, uc.MarkRead("u1", n.ID))
}

func TestDismissIsIdempotent(t *testing.T) {
	uc := NewNotificationUseCase(nil, 10, time.Minute)
	defer uc.Close()

	a := uc.Notify(context.Background(), "u1", note(1))
	b := uc.Notify(context.Background(), "u1", note(2))

	uc.Dismiss("u1", a.ID)
	uc.Dismiss("u1", a.ID)
	uc.Dismiss("u1", "unknown")
	uc.Dismiss("u2", b.ID)

	list := uc.List("u1")
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestReadNotificationDoesNotExpire(t *testing.T) {
	uc := NewNotificationUseCase(nil, 10, 30*time.Millisecond)
	defer uc.Close()

	n := uc.Notify(context.Background(), "u1", note(1))
	require.True(t, uc.MarkRead("u1", n.ID))

	time.Sleep(80 * time.Millisecond)
	list := uc.List("u1")
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)
}

func TestNotificationsArePerRecipient(t *testing.T) {
	uc := NewNotificationUseCase(nil, 2, time.Minute)
	defer uc.Close()

	uc.Notify(context.Background(), "u1", note(1))
	uc.Notify(context.Background(), "u1", note(2))
	uc.Notify(context.Background(), "u2", note(3))

	assert.Len(t, uc.List("u1"), 2)
	assert.Len(t, uc.List("u2"), 1)
	assert.Empty(t, uc.List("u3"))
}

func TestNotificationTitlesAreTruncated(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	ev := messageNotification(&entity.Message{ConversationID: "c1", SenderID: "u1", Content: long, Type: entity.MessageTypeText})

	assert.Equal(t, "New message from u1", ev.Title)
	assert.Len(t, []rune(ev.Message), 80)
}
