package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloo-solutions/medassist/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultGenerationBaseURL is Gemini's OpenAI-compatible endpoint
	DefaultGenerationBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultGenerationModel   = "gemini-1.5-flash"
)

// ChatAPI defines the single chat-completion call the generator needs
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator produces answer text from a composed prompt. One synchronous
// call per prompt; no streaming and no retry.
type Generator struct {
	api    ChatAPI
	model  string
	hasKey bool
}

type GeneratorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewGenerator creates a Generator. A missing API key is not an error here;
// every Generate call then fails with an unavailable adapter error.
func NewGenerator(cfg GeneratorConfig) *Generator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultGenerationBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGenerationModel
	}
	return &Generator{
		api:    openai.NewClientWithConfig(clientConfig(cfg.APIKey, baseURL)),
		model:  model,
		hasKey: cfg.APIKey != "",
	}
}

// Generate sends prompt as a single user message and returns the reply text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyText
	}
	if !g.hasKey {
		return "", domain.NewAdapterError(domain.KindUnavailable, "generate", ErrNoAPIKey)
	}

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyProviderError("generate", fmt.Errorf("failed to create completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewAdapterError(domain.KindInvalidResponse, "generate", errors.New("no choices returned"))
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", domain.NewAdapterError(domain.KindInvalidResponse, "generate", errors.New("empty completion"))
	}

	return text, nil
}
