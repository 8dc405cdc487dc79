package router

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/adapter/api/handler"
)

func SetupNotificationRouter(v1 *echo.Group, notificationHandler *handler.NotificationHandler) {
	notifications := v1.Group("/notifications")

	notifications.GET("", notificationHandler.ListNotifications)
	notifications.PUT("/:id/read", notificationHandler.MarkNotificationRead)
	notifications.DELETE("/:id", notificationHandler.DismissNotification)
}
