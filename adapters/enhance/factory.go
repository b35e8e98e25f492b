package enhance

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/domain/repositories"
)

// Config selects and configures the enhancement provider.
type Config struct {
	Provider     string // "gemini", "openai" or "off"
	GeminiAPIKey string
	OpenAIAPIKey string
	Model        string
}

// NewEnhancer creates the configured text enhancer. A nil enhancer with
// nil error means enhancement is disabled.
func NewEnhancer(ctx context.Context, cfg Config, logger *zap.Logger) (repositories.TextEnhancer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "off":
		return nil, nil
	case "gemini":
		return NewGeminiEnhancer(ctx, cfg.GeminiAPIKey, cfg.Model, logger)
	case "openai":
		return NewOpenAIEnhancer(cfg.OpenAIAPIKey, cfg.Model, logger)
	default:
		return nil, fmt.Errorf("unsupported enhancement provider: %s (supported: gemini, openai, off)", cfg.Provider)
	}
}
