package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

const defaultFPTURL = "https://api.fpt.ai/hmi/asr/v1"

// FPTRecognizer implements SpeechRecognizer using the FPT.AI HTTP API.
// FPT has no server-side adaptation resource, so pushed vocabulary is
// cached in the adapter and sent inline as phrase hints on every call.
// The async path is not supported by this provider.
type FPTRecognizer struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.RWMutex
	hints map[string][]string // userID -> hint phrases
}

var _ repositories.SpeechRecognizer = (*FPTRecognizer)(nil)

// NewFPTRecognizer creates an FPT.AI recognizer
func NewFPTRecognizer(apiKey, apiURL string, logger *zap.Logger) (*FPTRecognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("FPT API key is required")
	}
	if apiURL == "" {
		apiURL = defaultFPTURL
	}

	return &FPTRecognizer{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		logger:     logger,
		hints:      make(map[string][]string),
	}, nil
}

// Name implements repositories.SpeechRecognizer
func (p *FPTRecognizer) Name() string {
	return "fpt"
}

// fptResponse represents the FPT.AI STT API response
type fptResponse struct {
	Hypotheses []struct {
		Utterance  string  `json:"utterance"`
		Confidence float64 `json:"confidence"`
	} `json:"hypotheses"`
	ErrorCode int    `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

// RecognizeSync implements repositories.SpeechRecognizer
func (p *FPTRecognizer) RecognizeSync(ctx context.Context, audio entities.AudioPayload, userID string) ([]entities.TranscriptAlternative, error) {
	reqURL := p.apiURL
	if hints := p.userHints(userID); len(hints) > 0 {
		q := url.Values{}
		q.Set("phrase_hints", strings.Join(hints, ","))
		reqURL = p.apiURL + "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(audio.Data))
	if err != nil {
		return nil, domain.NewProviderError(p.Name(), domain.StageRecognize, err)
	}
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewProviderError(p.Name(), domain.StageRecognize, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewProviderError(p.Name(), domain.StageRecognize, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewProviderError(p.Name(), domain.StageRecognize,
			fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)))
	}

	var sttResp fptResponse
	if err := json.Unmarshal(body, &sttResp); err != nil {
		return nil, domain.NewProviderError(p.Name(), domain.StageRecognize,
			fmt.Errorf("failed to parse response: %w", err))
	}
	if sttResp.ErrorCode != 0 {
		return nil, domain.NewProviderError(p.Name(), domain.StageRecognize,
			fmt.Errorf("API error %d: %s", sttResp.ErrorCode, sttResp.Message))
	}

	var alternatives []entities.TranscriptAlternative
	for _, hyp := range sttResp.Hypotheses {
		text := strings.TrimSpace(hyp.Utterance)
		if text == "" {
			continue
		}
		alternatives = append(alternatives, entities.TranscriptAlternative{
			Text:       text,
			Confidence: clampConfidence(hyp.Confidence),
			// FPT reports no word-level detail.
		})
	}
	if len(alternatives) == 0 {
		return nil, domain.NewValidationError("no speech detected in audio")
	}

	p.logger.Info("FPT recognition completed",
		zap.String("user_id", userID),
		zap.Int("alternatives", len(alternatives)),
		zap.Float64("confidence", alternatives[0].Confidence))

	return alternatives, nil
}

// SubmitAsync implements repositories.SpeechRecognizer
func (p *FPTRecognizer) SubmitAsync(ctx context.Context, audio entities.AudioPayload, userID, callbackURL string) (string, error) {
	return "", domain.NewProviderError(p.Name(), domain.StageSubmit,
		fmt.Errorf("fpt does not support asynchronous recognition"))
}

// PushVocabulary implements repositories.SpeechRecognizer
func (p *FPTRecognizer) PushVocabulary(ctx context.Context, userID string, snapshot entities.VocabularySnapshot) error {
	hints := make([]string, 0, len(snapshot))
	for _, phrase := range snapshot {
		hints = append(hints, phrase.Text)
	}

	p.mu.Lock()
	p.hints[userID] = hints
	p.mu.Unlock()

	p.logger.Info("FPT phrase hints cached",
		zap.String("user_id", userID),
		zap.Int("phrases", len(hints)))

	return nil
}

func (p *FPTRecognizer) userHints(userID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hints[userID]
}

// clampConfidence normalizes provider confidence into [0,1]. Some
// backends report values marginally outside the range.
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
