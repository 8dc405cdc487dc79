package handler

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/usecase"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/response"
)

type ConversationHandler struct {
	conversationUseCase *usecase.ConversationUseCase
}

func NewConversationHandler(conversationUseCase *usecase.ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
	}
}

type createConversationRequest struct {
	ParticipantIDs []string `json:"participant_ids" validate:"omitempty,len=2,dive,required"`
	RecipientID    string   `json:"recipient_id" validate:"required_without=ParticipantIDs"`
	OrderID        string   `json:"order_id"`
	RequireNew     bool     `json:"require_new"`
}

// CreateConversation returns the existing conversation for the pair and order with
// 200, or the new one with 201.
func (h *ConversationHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	conv, created, err := h.conversationUseCase.CreateConversation(c.Request().Context(), currentUserID(c), usecase.CreateConversationInput{
		ParticipantIDs: req.ParticipantIDs,
		RecipientID:    req.RecipientID,
		OrderID:        req.OrderID,
		RequireNew:     req.RequireNew,
	})
	if err != nil {
		return response.Error(c, err)
	}

	if created {
		return response.Created(c, conv)
	}
	return response.Success(c, conv)
}

// ListConversations returns the caller's conversations, most recently active first.
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	userID := currentUserID(c)
	if requested := c.QueryParam("user_id"); requested != "" && requested != userID {
		return response.Error(c, errors.Forbidden("You can only list your own conversations", nil))
	}

	conversations, err := h.conversationUseCase.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

func (h *ConversationHandler) GetConversation(c echo.Context) error {
	conv, err := h.conversationUseCase.GetConversation(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conv)
}

// MarkConversationRead zeroes the caller's unread counter.
func (h *ConversationHandler) MarkConversationRead(c echo.Context) error {
	conv, err := h.conversationUseCase.MarkRead(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"conversation_id": conv.ID,
		"unread_count":    conv.UnreadCount[currentUserID(c)],
	})
}
