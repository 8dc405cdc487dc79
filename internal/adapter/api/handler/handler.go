package handler

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/adapter/api/middleware"
	"tailorchat/internal/usecase"
)

// Handlers groups every HTTP handler of the service.
type Handlers struct {
	Conversation *ConversationHandler
	Message      *MessageHandler
	Attachment   *AttachmentHandler
	Typing       *TypingHandler
	Notification *NotificationHandler
	Order        *OrderHandler
	WebSocket    *WebSocketHandler
	Health       *HealthHandler
	DevToken     *DevTokenHandler
	Files        *MemoryFileHandler
}

// UseCases is everything the handlers depend on.
type UseCases struct {
	Conversations *usecase.ConversationUseCase
	Messages      *usecase.MessageUseCase
	Attachments   *usecase.AttachmentUseCase
	Typing        *usecase.TypingUseCase
	Notifications *usecase.NotificationUseCase
	Orders        *usecase.OrderUseCase
}

func Setup(uc UseCases) *Handlers {
	return &Handlers{
		Conversation: NewConversationHandler(uc.Conversations),
		Message:      NewMessageHandler(uc.Messages),
		Attachment:   NewAttachmentHandler(uc.Attachments),
		Typing:       NewTypingHandler(uc.Typing, uc.Conversations),
		Notification: NewNotificationHandler(uc.Notifications),
		Order:        NewOrderHandler(uc.Orders),
		Health:       NewHealthHandler(nil),
	}
}

func currentUserID(c echo.Context) string {
	if uid, ok := c.Get(middleware.ContextUserID).(string); ok {
		return uid
	}
	return ""
}
