// Package classifier asks a language model whether a listing matches the
// user's criteria and, when it does, for a short summary of it.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"seloger-notifier/models"
	"seloger-notifier/utils"
)

// Classifier decides whether a listing is worth a notification.
type Classifier interface {
	Classify(ctx context.Context, description, additionalInfo string, criteria []string) (models.Verdict, error)
}

// Completer sends one system+user prompt pair to a chat model and returns
// the text of its reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLM is a Classifier backed by any chat model. It asks for a verdict first
// and only requests a summary for interesting listings.
type LLM struct {
	model  Completer
	logger *utils.Logger
}

var _ Classifier = (*LLM)(nil)

func New(model Completer, logger *utils.Logger) *LLM {
	return &LLM{model: model, logger: logger}
}

// Classify returns an error only when the model could not be reached. A
// reply that cannot be understood is treated as "not interesting".
func (c *LLM) Classify(ctx context.Context, description, additionalInfo string, criteria []string) (models.Verdict, error) {
	if strings.TrimSpace(description) == "" {
		return models.UnknownVerdict(), nil
	}

	reply, err := c.model.Complete(ctx, verdictSystemPrompt, verdictPrompt(description, additionalInfo, criteria))
	if err != nil {
		return models.Verdict{}, fmt.Errorf("classifier: verdict: %w", err)
	}

	verdict, ok := parseVerdict(reply)
	if !ok {
		c.logger.Warn("[classifier] Unreadable verdict, treating as not interesting: %q", truncate(reply, 200))
		return models.UnknownVerdict(), nil
	}
	if !verdict.Interesting {
		return verdict, nil
	}

	c.logger.Info("[classifier] Interesting listing %q, asking for a summary", verdict.Title)
	summary, err := c.model.Complete(ctx, summarySystemPrompt, summaryPrompt(description, additionalInfo))
	if err != nil {
		return models.Verdict{}, fmt.Errorf("classifier: summary: %w", err)
	}
	verdict.Summary = strings.TrimSpace(summary)
	return verdict, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
