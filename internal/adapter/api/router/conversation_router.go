package router

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/adapter/api/handler"
)

func SetupConversationRouter(v1 *echo.Group, h *handler.Handlers) {
	conversations := v1.Group("/conversations")

	conversations.POST("", h.Conversation.CreateConversation)           // POST /v1/conversations - Find or create
	conversations.GET("", h.Conversation.ListConversations)             // GET /v1/conversations - Caller's conversations
	conversations.GET("/:id", h.Conversation.GetConversation)           // GET /v1/conversations/:id
	conversations.PUT("/:id/read", h.Conversation.MarkConversationRead) // PUT /v1/conversations/:id/read - Zero unread counter

	conversations.GET("/:id/messages", h.Message.GetMessages)           // GET /v1/conversations/:id/messages?after_seq=&limit=
	conversations.POST("/:id/messages", h.Message.SendMessage)          // POST /v1/conversations/:id/messages
	conversations.PUT("/:id/messages/read", h.Message.MarkMessagesRead) // PUT /v1/conversations/:id/messages/read - Advance read cursor

	conversations.POST("/:id/attachments", h.Attachment.UploadAttachments) // POST /v1/conversations/:id/attachments - multipart "files"
	conversations.GET("/:id/attachments", h.Attachment.ListAttachments)    // GET /v1/conversations/:id/attachments

	conversations.POST("/:id/typing", h.Typing.SetTyping) // POST /v1/conversations/:id/typing {state}
	conversations.GET("/:id/typing", h.Typing.GetTyping)  // GET /v1/conversations/:id/typing
}
