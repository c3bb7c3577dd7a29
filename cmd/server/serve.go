package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/config"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/handlers"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/history"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/services"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/session"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/telegram"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot with its health and webhook HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.InfoContext(ctx, "quizbot starting", "env", cfg.Env, "port", cfg.ServerPort)

	sheetClient, err := newSheetsClient(ctx, cfg)
	if err != nil {
		return err
	}
	cache, closeCache, err := newRowCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	loader := sheets.NewLoader(sheetClient, cache, cfg.SheetCacheTTL)

	store, err := history.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if !store.Enabled() {
		slog.InfoContext(ctx, "DATABASE_URL not set, play history disabled")
	}

	hub := ws.NewHub()
	defer hub.Close()

	tg := telegram.NewClient(cfg.TelegramToken)
	presenter := telegram.NewPresenter(cfg.SessionTimeout)

	manager, err := session.NewManager(
		services.NewQuestionService(loader),
		telegram.NewRenderer(tg, presenter),
		session.Options{
			Timeout:         cfg.SessionTimeout,
			AnswerPacing:    cfg.AnswerPacing,
			DiagnosisPacing: cfg.DiagnosisPacing,
			NodeID:          cfg.SnowflakeNode,
			Recorder:        store,
			Events:          hub,
		},
	)
	if err != nil {
		return err
	}

	registry := telegram.NewCommandRegistry(loader, cfg.MasterSheet, tg, cfg.CommandRefresh)
	if err := registry.Refresh(ctx); err != nil {
		// the refresh loop retries; the bot still answers /help meanwhile
		slog.ErrorContext(ctx, "initial command load failed", "error", err)
	}

	handler := telegram.NewUpdateHandler(tg, presenter, registry, manager, store)
	bot := telegram.NewBot(tg, handler, cfg.WebhookBaseURL, cfg.WebhookSecret, cfg.PollTimeout)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		AdminAPIKey: cfg.AdminAPIKey,
		WebhookPath: telegram.WebhookPath,
		Webhook:     bot.HandleWebhook,
		Sessions:    manager,
		Commands:    registry,
		Hub:         hub,
	})
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(gctx, "http server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if bot.UsesWebhook() {
			slog.InfoContext(gctx, "webhook mode", "base_url", cfg.WebhookBaseURL)
		} else {
			slog.InfoContext(gctx, "WEBHOOK_BASE_URL not set, using long polling")
		}
		return bot.Run(gctx)
	})
	g.Go(func() error {
		registry.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()

	bot.Wait()
	manager.Shutdown()
	slog.Info("shutdown complete")

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newRowCache returns the shared redis cache when REDIS_URL is set and the
// in-process cache otherwise.
func newRowCache(ctx context.Context, cfg *config.Config) (sheets.Cache, func(), error) {
	if cfg.RedisURL == "" {
		return sheets.NewMemoryCache(), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.InfoContext(ctx, "redis connected")
	return sheets.NewRedisCache(client, ""), func() { _ = client.Close() }, nil
}
