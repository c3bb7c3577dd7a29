package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/ws"
)

type WSHandler struct {
	hub *ws.Hub
	log *slog.Logger
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub, log: logger.For("ws")}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleSessions streams session lifecycle events until the client disconnects.
func (h *WSHandler) HandleSessions(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", "error", err)
		return
	}
	h.hub.Serve(conn)
}
