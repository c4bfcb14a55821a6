package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"
)

// cohereChatter is the part of the Cohere SDK client used here.
type cohereChatter interface {
	Chat(ctx context.Context, request *cohere.ChatRequest, opts ...option.RequestOption) (*cohere.NonStreamedChatResponse, error)
}

// Cohere implements Completer using the Cohere Chat API.
// SDK: github.com/cohere-ai/cohere-go/v2
type Cohere struct {
	chat  cohereChatter
	model string
}

var _ Completer = (*Cohere)(nil)

func NewCohere(apiKey, model string) *Cohere {
	httpClient := &http.Client{Timeout: 120 * time.Second}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &Cohere{chat: client, model: model}
}

func (c *Cohere) Complete(ctx context.Context, system, prompt string) (string, error) {
	model := c.model
	resp, err := c.chat.Chat(ctx, &cohere.ChatRequest{
		Message:  prompt,
		Model:    &model,
		Preamble: &system,
	})
	if err != nil {
		return "", fmt.Errorf("cohere chat: %w", err)
	}
	if resp == nil {
		return "", errors.New("cohere chat returned empty response")
	}
	return resp.Text, nil
}
