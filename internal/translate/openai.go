// Package translate converts announcement text into the notification
// channel's language.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	translatePromptTemplate = "Translate the following text to %s. Preserve HTML tags and return only the translated text."

	burstSize = 2
)

// Client translates text into a target language.
type Client interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type openaiTranslator struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func NewOpenAI(apiKey, model string, rps float64, logger *zerolog.Logger) Client {
	return &openaiTranslator{
		client:  openai.NewClient(apiKey),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), burstSize),
		logger:  logger,
	}
}

func (t *openaiTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(targetLang) == "" {
		return text, nil
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(translatePromptTemplate, targetLang),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translation request: empty response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
