package handler

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/usecase"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/response"
	"tailorchat/pkg/utils"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type sendMessageRequest struct {
	TempID      string              `json:"temp_id"`
	Content     string              `json:"content" validate:"max=4000"`
	Type        string              `json:"type" validate:"omitempty,oneof=text measurement"`
	Measurement *entity.Measurement `json:"measurement,omitempty"`
}

type markMessagesReadRequest struct {
	MessageID string `json:"message_id"`
}

// SendMessage appends a text or measurement message. Images and files go through
// the attachment endpoint.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	msg, err := h.messageUseCase.Append(c.Request().Context(), usecase.AppendInput{
		ConversationID: c.Param("id"),
		SenderID:       currentUserID(c),
		Content:        req.Content,
		Type:           entity.MessageType(req.Type),
		Measurement:    req.Measurement,
		TempID:         req.TempID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, msg)
}

// GetMessages pages forward through the log: ?after_seq=<cursor>&limit=<n>.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	params := utils.GetCursorParams(c)

	page, err := h.messageUseCase.List(c.Request().Context(), currentUserID(c), c.Param("id"), params.AfterSeq, params.Limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Cursor(c, page.Messages, page.NextCursor, page.HasMore)
}

// MarkMessagesRead advances the caller's read cursor to message_id, or to the
// newest message when it is omitted.
func (h *MessageHandler) MarkMessagesRead(c echo.Context) error {
	var req markMessagesReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	cursor, err := h.messageUseCase.MarkRead(c.Request().Context(), currentUserID(c), c.Param("id"), req.MessageID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"conversation_id": c.Param("id"),
		"read_seq":        cursor,
	})
}
