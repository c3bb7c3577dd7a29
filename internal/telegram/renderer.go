package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/session"
)

const (
	maxAudioBytes = 20 << 20
	maxAlbumSize  = 10
)

// Renderer draws sessions into Telegram messages. Edits that fail fall back
// to sending a new message, whose id becomes the session's new target.
type Renderer struct {
	client    *Client
	presenter *Presenter
	media     *http.Client
	log       *slog.Logger
}

func NewRenderer(client *Client, presenter *Presenter) *Renderer {
	return &Renderer{
		client:    client,
		presenter: presenter,
		media:     &http.Client{Timeout: 30 * time.Second},
		log:       logger.For("renderer"),
	}
}

func (r *Renderer) RenderQuestion(ctx context.Context, t session.Target, v session.QuestionView) (session.Target, error) {
	text := r.presenter.Question(v)
	kb := AnswerKeyboard(v)
	if !v.HasMedia() {
		return r.sendOrEdit(ctx, t, text, kb)
	}

	// Media cannot be attached by editing, so the prompt moves to a new
	// message below the media and the old one loses its buttons.
	if t.MessageID > 0 {
		if err := r.client.RemoveKeyboard(ctx, t.ChatID, t.MessageID); err != nil {
			r.log.DebugContext(ctx, "remove keyboard failed", "error", err)
		}
	}
	r.sendMedia(ctx, t.ChatID, v)

	id, err := r.client.SendMessage(ctx, t.ChatID, text, ParseModeHTML, kb)
	if err != nil {
		return t, fmt.Errorf("send question: %w", err)
	}
	return session.Target{ChatID: t.ChatID, MessageID: id}, nil
}

func (r *Renderer) RenderFeedback(ctx context.Context, t session.Target, v session.QuestionView, o session.Outcome) (session.Target, error) {
	return r.sendOrEdit(ctx, t, r.presenter.Feedback(v, o), EmptyKeyboard())
}

// RenderSummary sends the result as a new message, followed by the review
// pages. Review failures are logged only.
func (r *Renderer) RenderSummary(ctx context.Context, t session.Target, s session.Summary) (session.Target, error) {
	if s.Diagnosis != nil && s.Diagnosis.Result.ImageURL != "" {
		if _, err := r.client.SendPhoto(ctx, t.ChatID, s.Diagnosis.Result.ImageURL, ""); err != nil {
			r.log.WarnContext(ctx, "result image failed", "error", err)
		}
	}

	id, err := r.client.SendMessage(ctx, t.ChatID, r.presenter.Summary(s), ParseModeHTML, nil)
	if err != nil {
		return t, fmt.Errorf("send summary: %w", err)
	}

	for i, page := range r.presenter.Review(s) {
		if _, err := r.client.SendMessage(ctx, t.ChatID, page, ParseModeHTML, nil); err != nil {
			r.log.WarnContext(ctx, "review page failed", "page", i+1, "error", err)
		}
	}
	return session.Target{ChatID: t.ChatID, MessageID: id}, nil
}

func (r *Renderer) RenderTimeout(ctx context.Context, t session.Target, rep session.TimeoutReport) (session.Target, error) {
	return r.sendOrEdit(ctx, t, r.presenter.Timeout(rep), EmptyKeyboard())
}

// sendOrEdit edits the target message; on failure it sends a new one.
func (r *Renderer) sendOrEdit(ctx context.Context, t session.Target, text string, kb interface{}) (session.Target, error) {
	if t.MessageID > 0 {
		err := r.client.EditMessageText(ctx, t.ChatID, t.MessageID, text, ParseModeHTML, kb)
		if err == nil {
			return t, nil
		}
		if ctx.Err() != nil {
			return t, err
		}
		r.log.WarnContext(ctx, "edit failed, sending new message",
			"chat_id", t.ChatID, "message_id", t.MessageID,
			"not_found", errors.Is(err, ErrMessageNotFound), "error", err)
	}

	id, err := r.client.SendMessage(ctx, t.ChatID, text, ParseModeHTML, kb)
	if err != nil {
		return t, fmt.Errorf("send: %w", err)
	}
	return session.Target{ChatID: t.ChatID, MessageID: id}, nil
}

func (r *Renderer) sendMedia(ctx context.Context, chatID int64, v session.QuestionView) {
	if v.ImageURL != "" {
		if _, err := r.client.SendPhoto(ctx, chatID, v.ImageURL, ""); err != nil {
			r.log.WarnContext(ctx, "question image failed", "error", err)
		}
	}

	var album []InputMediaPhoto
	for _, o := range v.Options {
		if o.ImageURL == "" {
			continue
		}
		album = append(album, InputMediaPhoto{Type: "photo", Media: o.ImageURL, Caption: r.presenter.OptionCaption(o)})
	}
	for len(album) > 0 {
		n := min(len(album), maxAlbumSize)
		chunk := album[:n]
		album = album[n:]

		var err error
		if len(chunk) == 1 {
			_, err = r.client.SendPhoto(ctx, chatID, chunk[0].Media, chunk[0].Caption)
		} else {
			err = r.client.SendMediaGroup(ctx, chatID, chunk)
		}
		if err != nil {
			r.log.WarnContext(ctx, "option images failed", "count", len(chunk), "error", err)
		}
	}

	if v.AudioURL != "" {
		r.sendAudio(ctx, chatID, v.AudioURL)
	}
}

func (r *Renderer) sendAudio(ctx context.Context, chatID int64, audioURL string) {
	data, name, err := r.download(ctx, audioURL)
	if err == nil {
		if _, err = r.client.SendAudio(ctx, chatID, name, data, ""); err == nil {
			return
		}
	}
	r.log.WarnContext(ctx, "audio upload failed, sending link", "url", audioURL, "error", err)
	if _, err := r.client.SendMessage(ctx, chatID, r.presenter.AudioLink(audioURL), ParseModeHTML, nil); err != nil {
		r.log.WarnContext(ctx, "audio link failed", "error", err)
	}
}

func (r *Renderer) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := r.media.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	if len(data) > maxAudioBytes {
		return nil, "", fmt.Errorf("download: file exceeds %d bytes", maxAudioBytes)
	}
	return data, audioFilename(resp.Header.Get("Content-Disposition"), rawURL), nil
}

func audioFilename(disposition, rawURL string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." && path.Ext(base) != "" {
			return base
		}
	}
	return "audio.mp3"
}
