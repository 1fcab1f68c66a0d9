package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness along with process uptime.
type HealthHandler struct {
	startedAt time.Time
	now       func() time.Time
}

// NewHealthHandler captures startedAt as the origin of the reported uptime.
func NewHealthHandler(startedAt time.Time) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, now: time.Now}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    now.Sub(h.startedAt).Seconds(),
		"timestamp": now.UTC().Format(time.RFC3339Nano),
	})
}
