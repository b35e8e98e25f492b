package stt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/domain/repositories"
)

// Config selects and configures the recognition provider.
type Config struct {
	Provider        string // "google" or "fpt"
	GoogleProjectID string
	Language        string
	FPTAPIKey       string
	FPTURL          string
}

// NewRecognizer creates the configured speech recognizer.
func NewRecognizer(ctx context.Context, cfg Config, logger *zap.Logger) (repositories.SpeechRecognizer, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = "google"
	}

	switch provider {
	case "google":
		return NewGoogleRecognizer(ctx, cfg.GoogleProjectID, cfg.Language, logger)
	case "fpt":
		return NewFPTRecognizer(cfg.FPTAPIKey, cfg.FPTURL, logger)
	default:
		return nil, fmt.Errorf("unsupported STT provider: %s (supported: google, fpt)", cfg.Provider)
	}
}
