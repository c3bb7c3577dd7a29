package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	started  time.Time
	sessions SessionLister
	now      func() time.Time
}

func NewHealthHandler(sessions SessionLister) *HealthHandler {
	return &HealthHandler{started: time.Now(), sessions: sessions, now: time.Now}
}

type HealthResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	ActiveSessions int    `json:"active_sessions"`
}

// Alive answers the platform's keep-alive probe.
func (h *HealthHandler) Alive(c *gin.Context) {
	c.String(http.StatusOK, "Bot is alive!")
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		Uptime:         h.now().Sub(h.started).Truncate(time.Second).String(),
		ActiveSessions: len(h.sessions.Active()),
	})
}
