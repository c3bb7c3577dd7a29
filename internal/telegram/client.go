package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMessageNotFound is returned when the message to edit no longer exists.
	ErrMessageNotFound = errors.New("telegram: message not found")
	// ErrMessageNotModified is returned by Telegram when an edit changes nothing.
	ErrMessageNotModified = errors.New("telegram: message is not modified")
)

type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %s", e.Method, e.Description)
}

func (e *APIError) Is(target error) bool {
	desc := strings.ToLower(e.Description)
	switch target {
	case ErrMessageNotFound:
		return strings.Contains(desc, "message to edit not found") ||
			strings.Contains(desc, "message can't be edited") ||
			strings.Contains(desc, "message to delete not found")
	case ErrMessageNotModified:
		return strings.Contains(desc, "message is not modified")
	}
	return false
}

type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

func NewClient(token string) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    fmt.Sprintf("https://api.telegram.org/bot%s", token),
	}
}

// WithBaseURL points the client at another Bot API server (used by tests).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return c.do(ctx, method, "application/json", bytes.NewReader(body))
}

func (c *Client) do(ctx context.Context, method, contentType string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, body)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	if !apiResp.OK {
		return nil, &APIError{Method: method, Code: apiResp.ErrorCode, Description: apiResp.Description}
	}

	return apiResp.Result, nil
}

func marshalMarkup(replyMarkup interface{}) (json.RawMessage, error) {
	if replyMarkup == nil {
		return nil, nil
	}
	return json.Marshal(replyMarkup)
}

func messageID(result json.RawMessage) int64 {
	var msg MessageResult
	_ = json.Unmarshal(result, &msg)
	return msg.MessageID
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string, replyMarkup interface{}) (int64, error) {
	req := SendMessageRequest{
		ChatID:             chatID,
		Text:               text,
		ParseMode:          parseMode,
		LinkPreviewOptions: &LinkPreviewOptions{IsDisabled: true},
	}

	rm, err := marshalMarkup(replyMarkup)
	if err != nil {
		return 0, err
	}
	req.ReplyMarkup = rm

	result, err := c.call(ctx, "sendMessage", req)
	if err != nil {
		return 0, err
	}
	return messageID(result), nil
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text, parseMode string, replyMarkup interface{}) error {
	req := EditMessageTextRequest{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: parseMode,
	}

	rm, err := marshalMarkup(replyMarkup)
	if err != nil {
		return err
	}
	req.ReplyMarkup = rm

	_, err = c.call(ctx, "editMessageText", req)
	if errors.Is(err, ErrMessageNotModified) {
		return nil
	}
	return err
}

// RemoveKeyboard strips the inline keyboard from a message.
func (c *Client) RemoveKeyboard(ctx context.Context, chatID, messageID int64) error {
	rm, _ := json.Marshal(InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{}})
	req := EditMessageReplyMarkupRequest{ChatID: chatID, MessageID: messageID, ReplyMarkup: rm}
	_, err := c.call(ctx, "editMessageReplyMarkup", req)
	if errors.Is(err, ErrMessageNotModified) {
		return nil
	}
	return err
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	req := AnswerCallbackQueryRequest{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       showAlert,
	}
	_, err := c.call(ctx, "answerCallbackQuery", req)
	return err
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) (int64, error) {
	req := SendPhotoRequest{ChatID: chatID, Photo: photoURL, Caption: caption}
	result, err := c.call(ctx, "sendPhoto", req)
	if err != nil {
		return 0, err
	}
	return messageID(result), nil
}

// SendMediaGroup sends 2-10 photos as one album.
func (c *Client) SendMediaGroup(ctx context.Context, chatID int64, media []InputMediaPhoto) error {
	req := SendMediaGroupRequest{ChatID: chatID, Media: media}
	_, err := c.call(ctx, "sendMediaGroup", req)
	return err
}

// SendAudio uploads an audio file as multipart form data.
func (c *Client) SendAudio(ctx context.Context, chatID int64, filename string, data []byte, caption string) (int64, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("chat_id", strconv.FormatInt(chatID, 10))
	if caption != "" {
		_ = w.WriteField("caption", caption)
	}
	part, err := w.CreateFormFile("audio", filename)
	if err != nil {
		return 0, fmt.Errorf("multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return 0, fmt.Errorf("multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("multipart: %w", err)
	}

	result, err := c.do(ctx, "sendAudio", w.FormDataContentType(), &buf)
	if err != nil {
		return 0, err
	}
	return messageID(result), nil
}

func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	req := SetWebhookRequest{URL: url, SecretToken: secretToken, AllowedUpdates: allowedUpdates}
	_, err := c.call(ctx, "setWebhook", req)
	return err
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.call(ctx, "deleteWebhook", struct{}{})
	return err
}

func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	_, err := c.call(ctx, "setMyCommands", SetMyCommandsRequest{Commands: commands})
	return err
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	req := GetUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: allowedUpdates,
	}
	result, err := c.call(ctx, "getUpdates", req)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("unmarshal updates: %w", err)
	}
	return updates, nil
}
