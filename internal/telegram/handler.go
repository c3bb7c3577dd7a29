package telegram

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/session"
)

// HistoryReader lists a user's recent plays.
type HistoryReader interface {
	Enabled() bool
	Recent(ctx context.Context, userID int64, limit int) ([]models.PlayRecord, error)
}

type UpdateHandler struct {
	client    *Client
	presenter *Presenter
	registry  *CommandRegistry
	sessions  *session.Manager
	history   HistoryReader
	log       *slog.Logger
}

func NewUpdateHandler(
	client *Client,
	presenter *Presenter,
	registry *CommandRegistry,
	sessions *session.Manager,
	history HistoryReader,
) *UpdateHandler {
	return &UpdateHandler{
		client:    client,
		presenter: presenter,
		registry:  registry,
		sessions:  sessions,
		history:   history,
		log:       logger.For("handler"),
	}
}

// Handle processes one update. A panic is logged and never escapes.
func (h *UpdateHandler) Handle(ctx context.Context, upd Update) {
	log := h.log.With("update_id", upd.UpdateID, "trace_id", uuid.NewString())
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic handling update", "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	if upd.CallbackQuery != nil {
		h.handleCallback(ctx, log, upd.CallbackQuery)
		return
	}
	if upd.Message != nil {
		h.handleMessage(ctx, log, upd.Message)
	}
}

func (h *UpdateHandler) handleMessage(ctx context.Context, log *slog.Logger, msg *Message) {
	if msg.From == nil {
		return
	}
	name, ok := commandName(msg)
	if !ok {
		return
	}
	chatID := msg.Chat.ID

	switch name {
	case "start", "help":
		h.send(ctx, log, chatID, h.presenter.Help(h.registry.List(), h.historyEnabled()))
		return
	case "history":
		h.cmdHistory(ctx, log, msg.From.ID, chatID)
		return
	}

	def, found := h.registry.Lookup(name)
	if !found {
		if msg.Chat.Type == "private" {
			h.send(ctx, log, chatID, "不明なコマンドです。/help で一覧を確認できます。")
		}
		return
	}
	h.runCommand(ctx, log.With("command", def.Name, "user_id", msg.From.ID), msg, def)
}

func (h *UpdateHandler) runCommand(ctx context.Context, log *slog.Logger, msg *Message, def models.CommandDef) {
	chatID := msg.Chat.ID
	if !def.AllowsChat(chatID) {
		log.InfoContext(ctx, "command not allowed in chat", "chat_id", chatID, "allowed", def.AllowedChatID)
		h.send(ctx, log, chatID, h.presenter.Restricted(def))
		return
	}

	loadingID, err := h.client.SendMessage(ctx, chatID, h.presenter.Loading(def.Title), ParseModeHTML, nil)
	if err != nil {
		log.ErrorContext(ctx, "send loading message", "error", err)
		return
	}

	prepared, err := h.sessions.Load(ctx, def)
	if err != nil {
		log.WarnContext(ctx, "question set unavailable", "error", err)
		if err := h.client.EditMessageText(ctx, chatID, loadingID, h.presenter.LoadError(def, err), ParseModeHTML, nil); err != nil {
			log.ErrorContext(ctx, "report load error", "error", err)
		}
		return
	}

	user := session.User{ID: msg.From.ID, Name: msg.From.DisplayName()}
	announcement := h.presenter.Announcement(user.Name, def.Title)
	if err := h.client.EditMessageText(ctx, chatID, loadingID, announcement, ParseModeHTML, nil); err != nil {
		log.WarnContext(ctx, "announce", "error", err)
	}

	// The first question goes out as a new message below the announcement.
	if _, err := h.sessions.Launch(ctx, user, prepared, session.Target{ChatID: chatID}); err != nil {
		log.ErrorContext(ctx, "launch session", "error", err)
	}
}

func (h *UpdateHandler) cmdHistory(ctx context.Context, log *slog.Logger, userID, chatID int64) {
	if !h.historyEnabled() {
		h.send(ctx, log, chatID, "履歴機能は現在無効です。")
		return
	}
	records, err := h.history.Recent(ctx, userID, historyLimit)
	if err != nil {
		log.ErrorContext(ctx, "load history", "error", err)
		h.send(ctx, log, chatID, "履歴を読み込めませんでした。")
		return
	}
	h.send(ctx, log, chatID, h.presenter.History(records))
}

func (h *UpdateHandler) historyEnabled() bool {
	return h.history != nil && h.history.Enabled()
}

func (h *UpdateHandler) handleCallback(ctx context.Context, log *slog.Logger, cb *CallbackQuery) {
	sessionRef, token, ok := ParseCallbackData(cb.Data)
	if !ok {
		h.answer(ctx, log, cb.ID, "無効なデータです", true)
		return
	}

	var target session.Target
	if cb.Message != nil {
		target = session.Target{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.MessageID}
	}

	log = log.With("session_id", sessionRef, "user_id", cb.From.ID)
	outcome, err := h.sessions.OnUserChoice(ctx, cb.From.ID, target, sessionRef, token)
	if stale, ok := session.IsStale(err); ok {
		h.answer(ctx, log, cb.ID, h.presenter.Stale(stale.Command), true)
		if target.MessageID > 0 {
			_ = h.client.RemoveKeyboard(ctx, target.ChatID, target.MessageID)
		}
		return
	}

	switch {
	case err == nil:
		// Acknowledge first; the pacing delay and next render follow.
		h.answer(ctx, log, cb.ID, "", false)
		if err := h.sessions.Advance(ctx, sessionRef, outcome); err != nil {
			log.ErrorContext(ctx, "advance session", "error", err)
		}
	case errors.Is(err, session.ErrAlreadyAnswered):
		h.answer(ctx, log, cb.ID, "この問題は回答済みです", false)
	case errors.Is(err, session.ErrNotOwner):
		h.answer(ctx, log, cb.ID, "これはあなたのセッションではありません", true)
	case errors.Is(err, session.ErrInvalidChoice):
		h.answer(ctx, log, cb.ID, "無効な選択です", true)
	case errors.Is(err, session.ErrRenderTargetGone):
		log.ErrorContext(ctx, "session abandoned after render failure", "error", err)
		h.answer(ctx, log, cb.ID, "", false)
	default:
		log.ErrorContext(ctx, "choice failed", "error", err)
		h.answer(ctx, log, cb.ID, "予期せぬエラーが発生しました。", true)
	}
}

func (h *UpdateHandler) send(ctx context.Context, log *slog.Logger, chatID int64, text string) {
	if _, err := h.client.SendMessage(ctx, chatID, text, ParseModeHTML, nil); err != nil {
		log.ErrorContext(ctx, "send message", "chat_id", chatID, "error", err)
	}
}

func (h *UpdateHandler) answer(ctx context.Context, log *slog.Logger, callbackID, text string, alert bool) {
	if err := h.client.AnswerCallbackQuery(ctx, callbackID, text, alert); err != nil {
		log.WarnContext(ctx, "answer callback", "error", err)
	}
}

// commandName returns the bot command at the start of msg, without the
// leading slash or an @botname suffix.
func commandName(msg *Message) (string, bool) {
	for _, e := range msg.Entities {
		if e.Type != "bot_command" || e.Offset != 0 {
			continue
		}
		text := utf16Slice(msg.Text, e.Offset, e.Length)
		text = strings.TrimPrefix(text, "/")
		text, _, _ = strings.Cut(text, "@")
		return strings.ToLower(text), text != ""
	}
	return "", false
}

// utf16Slice cuts s by UTF-16 code unit offsets, as Telegram reports them.
func utf16Slice(s string, offset, length int) string {
	var b strings.Builder
	pos := 0
	for _, r := range s {
		units := 1
		if r >= 0x10000 {
			units = 2
		}
		if pos >= offset+length {
			break
		}
		if pos >= offset {
			b.WriteRune(r)
		}
		pos += units
	}
	return b.String()
}

