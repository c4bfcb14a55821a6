package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"seloger-notifier/utils"
)

const (
	defaultTelegramAPI = "https://api.telegram.org"
	maxCaptionLength   = 1024
	maxMessageLength   = 4096
)

// TelegramOptions configures the bot.
type TelegramOptions struct {
	Token      string
	ChatID     string
	MaxRetries int
	RetryDelay time.Duration
}

// Telegram sends notifications through the Telegram Bot API. Every call is
// retried: on 429 after the delay Telegram asks for, on timeouts and server
// errors after RetryDelay. Other client errors are not retried.
type Telegram struct {
	opts    TelegramOptions
	baseURL string
	client  *http.Client
	retry   *utils.RetryConfig
	logger  *utils.Logger
}

var _ Notifier = (*Telegram)(nil)

func NewTelegram(opts TelegramOptions, logger *utils.Logger) *Telegram {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	return &Telegram{
		opts:    opts,
		baseURL: defaultTelegramAPI,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   opts.RetryDelay,
			Logger:      logger,
		},
		logger: logger,
	}
}

// Notify sends the image first, captioned with the first line of text, then
// the full text. A failed photo is logged and the text is still sent.
func (t *Telegram) Notify(ctx context.Context, text, imagePath string) error {
	if imagePath != "" {
		caption := captionFor(text, maxCaptionLength)
		err := t.retry.Do(ctx, "telegram sendPhoto", func() error {
			return t.sendPhoto(ctx, imagePath, caption)
		})
		if err != nil {
			t.logger.Warn("[telegram] Photo not sent, sending text only: %v", err)
		}
	}

	if r := []rune(text); len(r) > maxMessageLength {
		text = string(r[:maxMessageLength])
	}
	return t.retry.Do(ctx, "telegram sendMessage", func() error {
		return t.sendMessage(ctx, text)
	})
}

func (t *Telegram) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(t.baseURL, "/"), t.opts.Token, method)
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]any{
		"chat_id": t.opts.ChatID,
		"text":    text,
	})
	if err != nil {
		return utils.Permanent(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return utils.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(req)
}

func (t *Telegram) sendPhoto(ctx context.Context, imagePath, caption string) error {
	f, err := os.Open(imagePath)
	if err != nil {
		return utils.Permanent(fmt.Errorf("telegram: open photo: %w", err))
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("chat_id", t.opts.ChatID); err != nil {
		return utils.Permanent(err)
	}
	if err := mw.WriteField("caption", caption); err != nil {
		return utils.Permanent(err)
	}
	part, err := mw.CreateFormFile("photo", filepath.Base(imagePath))
	if err != nil {
		return utils.Permanent(err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return utils.Permanent(fmt.Errorf("telegram: read photo: %w", err))
	}
	if err := mw.Close(); err != nil {
		return utils.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendPhoto"), &buf)
	if err != nil {
		return utils.Permanent(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return t.do(req)
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// do executes req and classifies the outcome for the retry loop.
func (t *Telegram) do(req *http.Request) error {
	resp, err := t.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("telegram: timed out: %w", err)
		}
		if req.Context().Err() != nil {
			return utils.Permanent(err)
		}
		return fmt.Errorf("telegram: %w", err)
	}
	defer resp.Body.Close()

	var api apiResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&api)

	if resp.StatusCode == http.StatusOK && api.OK {
		return nil
	}

	apiErr := fmt.Errorf("telegram: status %d: %s", resp.StatusCode, api.Description)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		after := time.Duration(api.Parameters.RetryAfter) * time.Second
		if after <= 0 {
			after = t.opts.RetryDelay
		}
		return &utils.RetryAfterError{After: after, Err: apiErr}
	case resp.StatusCode >= 500:
		return apiErr
	default:
		return utils.Permanent(apiErr)
	}
}
