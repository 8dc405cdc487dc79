package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	ws "tailorchat/internal/infrastructure/websocket"
)

// ConnectionStats reports live WebSocket usage.
type ConnectionStats interface {
	Stats() ws.Stats
}

type HealthHandler struct {
	startedAt time.Time
	stats     ConnectionStats
}

// NewHealthHandler omits connection counts when stats is nil.
func NewHealthHandler(stats ConnectionStats) *HealthHandler {
	return &HealthHandler{startedAt: time.Now(), stats: stats}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.stats != nil {
		body["websocket"] = h.stats.Stats()
	}
	return c.JSON(http.StatusOK, body)
}
