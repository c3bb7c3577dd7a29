package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/middleware"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/ws"
)

type RouterConfig struct {
	AdminAPIKey string
	// WebhookPath must match the URL registered with setWebhook.
	WebhookPath string
	Webhook     gin.HandlerFunc
	Sessions    SessionLister
	Commands    CommandCatalog
	Hub         *ws.Hub
}

// NewRouter wires health, webhook, status API and websocket routes. The
// admin routes are only mounted when an API key is configured.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	health := NewHealthHandler(cfg.Sessions)
	r.GET("/", health.Alive)
	r.HEAD("/", health.Alive)
	r.GET("/healthz", health.Health)

	if cfg.Webhook != nil {
		r.POST(cfg.WebhookPath, cfg.Webhook)
	}

	if cfg.AdminAPIKey == "" {
		return r
	}

	auth := middleware.APIKeyAuth(cfg.AdminAPIKey)
	status := NewStatusHandler(cfg.Sessions, cfg.Commands)

	api := r.Group("/api/v1")
	api.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", middleware.APIKeyHeader},
	}))
	api.Use(auth)
	{
		api.GET("/sessions", status.ListSessions)
		api.GET("/commands", status.ListCommands)
		api.POST("/commands/reload", status.ReloadCommands)
	}

	if cfg.Hub != nil {
		r.GET("/ws/sessions", auth, NewWSHandler(cfg.Hub).HandleSessions)
	}

	return r
}
