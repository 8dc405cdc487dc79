package router

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/adapter/api/handler"
)

// SetupOrderRouter exposes the hook the order system calls on status changes.
// Participants may post for their own orders; admins for any.
func SetupOrderRouter(v1 *echo.Group, orderHandler *handler.OrderHandler) {
	v1.POST("/orders/:orderId/events", orderHandler.PostOrderEvent)
}
