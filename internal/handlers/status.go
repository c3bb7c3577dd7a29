package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/session"
)

type SessionLister interface {
	Active() []session.Snapshot
}

type CommandCatalog interface {
	List() []models.CommandDef
	Refresh(ctx context.Context) error
}

type StatusHandler struct {
	sessions SessionLister
	commands CommandCatalog
}

func NewStatusHandler(sessions SessionLister, commands CommandCatalog) *StatusHandler {
	return &StatusHandler{sessions: sessions, commands: commands}
}

type CommandResponse struct {
	Name           string      `json:"name"`
	Kind           models.Kind `json:"kind"`
	Title          string      `json:"title"`
	QuestionsSheet string      `json:"sheet_questions"`
	ResultsSheet   string      `json:"sheet_results,omitempty"`
	AllowedChatID  string      `json:"allowed_channel_id,omitempty"`
}

func toCommandResponses(defs []models.CommandDef) []CommandResponse {
	out := make([]CommandResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, CommandResponse{
			Name:           d.Name,
			Kind:           d.Kind,
			Title:          d.Title,
			QuestionsSheet: d.QuestionsSheet,
			ResultsSheet:   d.ResultsSheet,
			AllowedChatID:  d.AllowedChatID,
		})
	}
	return out
}

func (h *StatusHandler) ListSessions(c *gin.Context) {
	active := h.sessions.Active()
	if active == nil {
		active = []session.Snapshot{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": active, "count": len(active)})
}

func (h *StatusHandler) ListCommands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"commands": toCommandResponses(h.commands.List())})
}

// ReloadCommands re-reads the master list. The previous table stays in
// place when the reload fails.
func (h *StatusHandler) ReloadCommands(c *gin.Context) {
	if err := h.commands.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commands": toCommandResponses(h.commands.List())})
}
