package handler

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/usecase"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/response"
)

type TypingHandler struct {
	typingUseCase       *usecase.TypingUseCase
	conversationUseCase *usecase.ConversationUseCase
}

func NewTypingHandler(typingUseCase *usecase.TypingUseCase, conversationUseCase *usecase.ConversationUseCase) *TypingHandler {
	return &TypingHandler{
		typingUseCase:       typingUseCase,
		conversationUseCase: conversationUseCase,
	}
}

type typingRequest struct {
	State string `json:"state" validate:"required,oneof=start stop"`
}

func (h *TypingHandler) SetTyping(c echo.Context) error {
	var req typingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	var err error
	if req.State == "start" {
		err = h.typingUseCase.StartTyping(ctx, c.Param("id"), currentUserID(c))
	} else {
		err = h.typingUseCase.StopTyping(ctx, c.Param("id"), currentUserID(c))
	}
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"state": req.State})
}

// GetTyping lists who else is typing in the conversation.
func (h *TypingHandler) GetTyping(c echo.Context) error {
	userID := currentUserID(c)
	if _, err := h.conversationUseCase.GetConversation(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, h.typingUseCase.ListTyping(c.Param("id"), userID))
}
