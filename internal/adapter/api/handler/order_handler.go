package handler

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/adapter/api/middleware"
	"tailorchat/internal/usecase"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/response"
)

type OrderHandler struct {
	orderUseCase *usecase.OrderUseCase
}

func NewOrderHandler(orderUseCase *usecase.OrderUseCase) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
	}
}

type orderEventRequest struct {
	Status string `json:"status" validate:"required,max=64"`
	Note   string `json:"note" validate:"max=500"`
}

// PostOrderEvent is called by the order system when an order changes status.
func (h *OrderHandler) PostOrderEvent(c echo.Context) error {
	var req orderEventRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	messages, err := h.orderUseCase.StatusChanged(c.Request().Context(), identity, usecase.OrderStatusInput{
		OrderID: c.Param("orderId"),
		Status:  req.Status,
		Note:    req.Note,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, messages)
}
