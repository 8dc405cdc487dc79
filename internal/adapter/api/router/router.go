package router

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/adapter/api/handler"
	"tailorchat/internal/adapter/api/middleware"
	"tailorchat/internal/infrastructure/ratelimit"
)

// Setup registers every route. limiter may be nil to disable HTTP throttling.
func Setup(e *echo.Echo, h *handler.Handlers, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter, environment string) {
	SetupHealthRouter(e, h.Health)
	SetupDevRouter(e, h.DevToken, environment)

	v1 := e.Group("/v1")
	v1.Use(authMiddleware.Authenticate)
	if limiter != nil {
		v1.Use(middleware.RateLimit(limiter))
	}

	SetupConversationRouter(v1, h)
	SetupNotificationRouter(v1, h.Notification)
	SetupOrderRouter(v1, h.Order)

	if h.WebSocket != nil {
		SetupWebSocketRouter(e, h.WebSocket)
	}
	if h.Files != nil {
		e.GET("/files/*", h.Files.ServeFile)
	}
}

func SetupHealthRouter(e *echo.Echo, healthHandler *handler.HealthHandler) {
	e.GET("/health", healthHandler.CheckHealth)
}

func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler, environment string) {
	if environment != "development" || devTokenHandler == nil {
		return
	}

	e.GET("/_dev/token/:uid", devTokenHandler.GenerateToken)
}

// SetupWebSocketRouter registers /ws without the auth middleware; the handler reads
// the token from the query string.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
