package repositories

import (
	"context"

	"github.com/vocalis-app/vocalis/domain/entities"
)

// SpeechRecognizer abstracts a speech-recognition backend. Concrete
// providers differ in payload encoding and in whether vocabulary is sent
// inline or kept in a server-side adaptation resource; both shapes hide
// behind PushVocabulary.
type SpeechRecognizer interface {
	// Name returns the provider name (e.g. "google", "fpt").
	Name() string
	// RecognizeSync transcribes audio in-request, biased by the user's
	// vocabulary. Alternatives come back best first with confidence
	// normalized to [0,1].
	RecognizeSync(ctx context.Context, audio entities.AudioPayload, userID string) ([]entities.TranscriptAlternative, error)
	// SubmitAsync starts a long-running recognition and returns the
	// provider-issued job id. The result arrives later on callbackURL.
	SubmitAsync(ctx context.Context, audio entities.AudioPayload, userID, callbackURL string) (string, error)
	// PushVocabulary replaces the provider-side phrase biasing for the
	// user with the given snapshot.
	PushVocabulary(ctx context.Context, userID string, snapshot entities.VocabularySnapshot) error
}

// TextEnhancer runs grammar correction over a raw transcript.
type TextEnhancer interface {
	Enhance(ctx context.Context, text string) (string, error)
}

// SpeechSynthesizer renders text to a playable audio preview.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
