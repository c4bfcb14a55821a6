package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"seloger-notifier/utils"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAI implements Completer using the OpenAI Chat Completions API.
// Endpoint: POST https://api.openai.com/v1/chat/completions
// Request: {"model": "...", "messages": [{"role": "system", "content": "..."}, ...]}
// Response: {"choices": [{"message": {"content": "..."}}]}
type OpenAI struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	retry    *utils.RetryConfig
}

var _ Completer = (*OpenAI)(nil)

// NewOpenAI returns an OpenAI completer. Rate limits and server errors are
// retried a few times before giving up.
func NewOpenAI(apiKey, model string, logger *utils.Logger) *OpenAI {
	return &OpenAI{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultOpenAIEndpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
		retry: &utils.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			Multiplier:  2,
			Logger:      logger,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	var content string
	err = o.retry.Do(ctx, "openai chat", func() error {
		c, err := o.post(ctx, body)
		if err != nil {
			return err
		}
		content = c
		return nil
	})
	return content, err
}

func (o *OpenAI) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", utils.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := fmt.Errorf("openai: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if after, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && after > 0 {
				return "", &utils.RetryAfterError{After: time.Duration(after) * time.Second, Err: statusErr}
			}
			return "", statusErr
		case resp.StatusCode >= 500:
			return "", statusErr
		default:
			return "", utils.Permanent(statusErr)
		}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", utils.Permanent(fmt.Errorf("openai: decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", utils.Permanent(errors.New("openai: response has no choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}
