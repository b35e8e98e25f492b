package enhance

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

// OpenAIEnhancer implements TextEnhancer using the OpenAI chat API.
// Alternative binding to GeminiEnhancer, selected by configuration.
type OpenAIEnhancer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.TextEnhancer = (*OpenAIEnhancer)(nil)

// NewOpenAIEnhancer creates a new OpenAI enhancer
func NewOpenAIEnhancer(apiKey, model string, logger *zap.Logger) (*OpenAIEnhancer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIEnhancer{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}, nil
}

// Enhance implements repositories.TextEnhancer
func (o *OpenAIEnhancer) Enhance(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text cannot be empty")
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: enhanceSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.2, // Low temperature for faithful correction
	})
	if err != nil {
		return "", domain.NewProviderError("openai", domain.StageEnhance, err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewProviderError("openai", domain.StageEnhance,
			fmt.Errorf("no choices returned"))
	}

	enhanced := strings.TrimSpace(resp.Choices[0].Message.Content)
	if enhanced == "" {
		return "", domain.NewProviderError("openai", domain.StageEnhance,
			fmt.Errorf("empty response"))
	}

	o.logger.Debug("OpenAI enhancement completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return enhanced, nil
}
