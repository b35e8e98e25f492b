package stt

import (
	"context"
	"fmt"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

// GoogleRecognizer implements SpeechRecognizer using Google Cloud
// Speech-to-Text. Vocabulary biasing uses a per-user server-side
// PhraseSet adaptation resource referenced from every recognition call.
type GoogleRecognizer struct {
	client     *speech.Client
	adaptation *speech.AdaptationClient
	projectID  string
	language   string
	logger     *zap.Logger

	// Guards first-time PhraseSet creation per user.
	initMu      sync.Mutex
	initialized map[string]bool
}

var _ repositories.SpeechRecognizer = (*GoogleRecognizer)(nil)

// NewGoogleRecognizer creates a Google Cloud recognizer. Credentials come
// from the environment (GOOGLE_APPLICATION_CREDENTIALS), as the client
// libraries expect.
func NewGoogleRecognizer(ctx context.Context, projectID, language string, logger *zap.Logger) (*GoogleRecognizer, error) {
	if projectID == "" {
		return nil, fmt.Errorf("google project ID is required")
	}
	if language == "" {
		language = "en-US"
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	adaptation, err := speech.NewAdaptationClient(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create adaptation client: %w", err)
	}

	return &GoogleRecognizer{
		client:      client,
		adaptation:  adaptation,
		projectID:   projectID,
		language:    language,
		logger:      logger,
		initialized: make(map[string]bool),
	}, nil
}

// Name implements repositories.SpeechRecognizer
func (g *GoogleRecognizer) Name() string {
	return "google"
}

// Close releases both underlying gRPC clients.
func (g *GoogleRecognizer) Close() error {
	g.adaptation.Close()
	return g.client.Close()
}

func (g *GoogleRecognizer) phraseSetID(userID string) string {
	return fmt.Sprintf("user-%s-phrases", userID)
}

func (g *GoogleRecognizer) phraseSetName(userID string) string {
	return fmt.Sprintf("projects/%s/locations/global/phraseSets/%s", g.projectID, g.phraseSetID(userID))
}

func (g *GoogleRecognizer) recognitionConfig(audio entities.AudioPayload, userID string) (*speechpb.RecognitionConfig, error) {
	encoding, sampleRate, err := audioEncoding(audio.MIMEType)
	if err != nil {
		return nil, err
	}

	return &speechpb.RecognitionConfig{
		Encoding:             encoding,
		SampleRateHertz:      sampleRate,
		LanguageCode:         g.language,
		EnableWordConfidence: true,
		UseEnhanced:          true,
		Model:                "latest_long",
		Adaptation: &speechpb.SpeechAdaptation{
			PhraseSetReferences: []string{g.phraseSetName(userID)},
		},
	}, nil
}

// RecognizeSync implements repositories.SpeechRecognizer
func (g *GoogleRecognizer) RecognizeSync(ctx context.Context, audio entities.AudioPayload, userID string) ([]entities.TranscriptAlternative, error) {
	config, err := g.recognitionConfig(audio, userID)
	if err != nil {
		return nil, domain.NewProviderError(g.Name(), domain.StageRecognize, err)
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: config,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.Data},
		},
	})
	if err != nil {
		return nil, domain.NewProviderError(g.Name(), domain.StageRecognize, err)
	}

	alternatives := collectAlternatives(resp.Results)
	if len(alternatives) == 0 {
		return nil, domain.NewValidationError("no speech detected in audio")
	}

	g.logger.Info("Google recognition completed",
		zap.String("user_id", userID),
		zap.Int("alternatives", len(alternatives)),
		zap.Float64("confidence", alternatives[0].Confidence))

	return alternatives, nil
}

// SubmitAsync implements repositories.SpeechRecognizer. The long-running
// operation name acts as the provider job id; delivery to callbackURL is
// handled by the operation bridge watching the provider side.
func (g *GoogleRecognizer) SubmitAsync(ctx context.Context, audio entities.AudioPayload, userID, callbackURL string) (string, error) {
	config, err := g.recognitionConfig(audio, userID)
	if err != nil {
		return "", domain.NewProviderError(g.Name(), domain.StageSubmit, err)
	}

	op, err := g.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: config,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.Data},
		},
	})
	if err != nil {
		return "", domain.NewProviderError(g.Name(), domain.StageSubmit, err)
	}

	g.logger.Info("Google long-running recognition submitted",
		zap.String("user_id", userID),
		zap.String("operation", op.Name()),
		zap.String("callback_url", callbackURL))

	return op.Name(), nil
}

// PushVocabulary implements repositories.SpeechRecognizer. The PhraseSet
// is created lazily on first push and updated in place afterwards.
func (g *GoogleRecognizer) PushVocabulary(ctx context.Context, userID string, snapshot entities.VocabularySnapshot) error {
	if err := g.ensurePhraseSet(ctx, userID); err != nil {
		return domain.NewProviderError(g.Name(), domain.StageVocabPush, err)
	}

	phrases := make([]*speechpb.PhraseSet_Phrase, 0, len(snapshot))
	for _, p := range snapshot {
		phrases = append(phrases, &speechpb.PhraseSet_Phrase{
			Value: p.Text,
			Boost: float32(p.Boost),
		})
	}

	_, err := g.adaptation.UpdatePhraseSet(ctx, &speechpb.UpdatePhraseSetRequest{
		PhraseSet: &speechpb.PhraseSet{
			Name:    g.phraseSetName(userID),
			Phrases: phrases,
		},
		UpdateMask: &fieldmaskpb.FieldMask{Paths: []string{"phrases"}},
	})
	if err != nil {
		return domain.NewProviderError(g.Name(), domain.StageVocabPush, err)
	}

	g.logger.Info("PhraseSet updated",
		zap.String("user_id", userID),
		zap.Int("phrases", len(phrases)))

	return nil
}

// ensurePhraseSet creates the user's PhraseSet if it does not exist yet.
// The per-user lock plus treating AlreadyExists as success keeps
// concurrent first-time pushes from racing the check-then-create.
func (g *GoogleRecognizer) ensurePhraseSet(ctx context.Context, userID string) error {
	g.initMu.Lock()
	done := g.initialized[userID]
	g.initMu.Unlock()
	if done {
		return nil
	}

	name := g.phraseSetName(userID)
	_, err := g.adaptation.GetPhraseSet(ctx, &speechpb.GetPhraseSetRequest{Name: name})
	if err == nil {
		g.markInitialized(userID)
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to get phrase set %s: %w", name, err)
	}

	_, err = g.adaptation.CreatePhraseSet(ctx, &speechpb.CreatePhraseSetRequest{
		Parent:      fmt.Sprintf("projects/%s/locations/global", g.projectID),
		PhraseSetId: g.phraseSetID(userID),
		PhraseSet:   &speechpb.PhraseSet{},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("failed to create phrase set %s: %w", name, err)
	}

	g.logger.Info("PhraseSet initialized", zap.String("user_id", userID))
	g.markInitialized(userID)
	return nil
}

func (g *GoogleRecognizer) markInitialized(userID string) {
	g.initMu.Lock()
	g.initialized[userID] = true
	g.initMu.Unlock()
}

func collectAlternatives(results []*speechpb.SpeechRecognitionResult) []entities.TranscriptAlternative {
	var alternatives []entities.TranscriptAlternative
	for _, result := range results {
		if len(result.Alternatives) == 0 {
			continue
		}
		// Each result segment contributes its top hypothesis.
		best := result.Alternatives[0]
		alt := entities.TranscriptAlternative{
			Text:       best.Transcript,
			Confidence: clampConfidence(float64(best.Confidence)),
		}
		for _, w := range best.Words {
			alt.WordConfidences = append(alt.WordConfidences, entities.WordConfidence{
				Word:       w.Word,
				Confidence: clampConfidence(float64(w.Confidence)),
			})
		}
		alternatives = append(alternatives, alt)
	}
	return alternatives
}

// audioEncoding maps a declared MIME type to the Google Speech encoding.
func audioEncoding(mimeType string) (speechpb.RecognitionConfig_AudioEncoding, int32, error) {
	switch mimeType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return speechpb.RecognitionConfig_LINEAR16, 16000, nil
	case "audio/mpeg", "audio/mp3":
		return speechpb.RecognitionConfig_MP3, 44100, nil
	case "audio/flac", "audio/x-flac":
		// FLAC carries its sample rate in the header.
		return speechpb.RecognitionConfig_FLAC, 0, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, 0, fmt.Errorf("unsupported MIME type: %s", mimeType)
	}
}
