package handler

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/usecase"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/response"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	return response.Success(c, h.notificationUseCase.List(currentUserID(c)))
}

func (h *NotificationHandler) MarkNotificationRead(c echo.Context) error {
	if !h.notificationUseCase.MarkRead(currentUserID(c), c.Param("id")) {
		return response.Error(c, errors.NotFound("Notification", nil))
	}

	return response.Success(c, map[string]string{"id": c.Param("id")})
}

// DismissNotification always succeeds; an expired notification is already gone.
func (h *NotificationHandler) DismissNotification(c echo.Context) error {
	h.notificationUseCase.Dismiss(currentUserID(c), c.Param("id"))
	return response.Success(c, map[string]string{"id": c.Param("id")})
}
