package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
)

const (
	WebhookPath  = "/webhook/telegram"
	secretHeader = "X-Telegram-Bot-Api-Secret-Token"
	pollBackoff  = 3 * time.Second
)

// Bot receives updates by webhook when a base URL is configured, otherwise by
// long polling, and hands each one to the handler on its own goroutine.
type Bot struct {
	client         *Client
	handler        *UpdateHandler
	webhookBaseURL string
	webhookSecret  string
	pollTimeout    time.Duration
	log            *slog.Logger

	wg sync.WaitGroup
}

func NewBot(client *Client, handler *UpdateHandler, webhookBaseURL, webhookSecret string, pollTimeout time.Duration) *Bot {
	return &Bot{
		client:         client,
		handler:        handler,
		webhookBaseURL: strings.TrimRight(webhookBaseURL, "/"),
		webhookSecret:  webhookSecret,
		pollTimeout:    pollTimeout,
		log:            logger.For("bot"),
	}
}

func (b *Bot) UsesWebhook() bool {
	return b.webhookBaseURL != ""
}

// Run receives updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if b.UsesWebhook() {
		url := b.webhookBaseURL + WebhookPath
		if err := b.client.SetWebhook(ctx, url, b.webhookSecret); err != nil {
			return err
		}
		b.log.InfoContext(ctx, "webhook registered", "url", url)
		<-ctx.Done()
		return nil
	}
	return b.poll(ctx)
}

func (b *Bot) poll(ctx context.Context) error {
	if err := b.client.DeleteWebhook(ctx); err != nil {
		b.log.WarnContext(ctx, "deleteWebhook failed", "error", err)
	}
	b.log.InfoContext(ctx, "long polling started", "timeout", b.pollTimeout)

	var offset int64
	for {
		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			b.log.ErrorContext(ctx, "getUpdates failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollBackoff):
			}
			continue
		}

		for _, upd := range updates {
			offset = upd.UpdateID + 1
			b.dispatch(context.WithoutCancel(ctx), upd)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, upd Update) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.handler.Handle(ctx, upd)
	}()
}

// Wait blocks until in-flight updates are handled.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) HandleWebhook(c *gin.Context) {
	if b.webhookSecret != "" && c.GetHeader(secretHeader) != b.webhookSecret {
		c.Status(http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	var upd Update
	if err := json.Unmarshal(body, &upd); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	b.dispatch(context.WithoutCancel(c.Request.Context()), upd)

	c.Status(http.StatusOK)
}
