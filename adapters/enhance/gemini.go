// Package enhance provides text-enhancement provider bindings. Enhancers
// run grammar correction over a raw transcript; failures degrade to the
// original text at the orchestrator boundary.
package enhance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

const (
	defaultGeminiModel   = "gemini-2.0-flash"
	enhanceSystemPrompt  = "Correct the grammar, punctuation and obvious recognition mistakes in the following transcript. Preserve the speaker's wording and domain terms. Reply with the corrected text only, no commentary."
	enhanceTimeoutSecond = 30
)

// GeminiEnhancer implements TextEnhancer using Google's Gemini API
type GeminiEnhancer struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.TextEnhancer = (*GeminiEnhancer)(nil)

// NewGeminiEnhancer creates a new Gemini enhancer
func NewGeminiEnhancer(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiEnhancer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEnhancer{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Enhance implements repositories.TextEnhancer
func (g *GeminiEnhancer) Enhance(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, enhanceTimeoutSecond*time.Second)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(enhanceSystemPrompt, genai.RoleUser),
		genai.NewContentFromText(text, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", domain.NewProviderError("gemini", domain.StageEnhance, err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", domain.NewProviderError("gemini", domain.StageEnhance,
			fmt.Errorf("no content generated"))
	}

	var enhanced string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			enhanced += part.Text
		}
	}
	enhanced = strings.TrimSpace(enhanced)
	if enhanced == "" {
		return "", domain.NewProviderError("gemini", domain.StageEnhance,
			fmt.Errorf("empty response"))
	}

	g.logger.Debug("Gemini enhancement completed",
		zap.Int("input_length", len(text)),
		zap.Int("output_length", len(enhanced)))

	return enhanced, nil
}
