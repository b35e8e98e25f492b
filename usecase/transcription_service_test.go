package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/adapters/memory"
	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/internal/intake"
)

func alternatives(text string, confidence float64) []entities.TranscriptAlternative {
	return []entities.TranscriptAlternative{{Text: text, Confidence: confidence}}
}

type transcriptionFixture struct {
	service     *TranscriptionService
	recognizer  *fakeRecognizer
	enhancer    *fakeEnhancer
	synthesizer *fakeSynthesizer
	jobs        *memory.JobRepository
	notifier    *fakeNotifier
}

func newTranscriptionFixture(cfg TranscriptionConfig) *transcriptionFixture {
	f := &transcriptionFixture{
		recognizer:  &fakeRecognizer{submitID: "op-123"},
		enhancer:    &fakeEnhancer{enhanced: "enhanced text"},
		synthesizer: &fakeSynthesizer{audio: []byte("mp3")},
		jobs:        memory.NewJobRepository(),
		notifier:    &fakeNotifier{},
	}
	router := intake.NewRouter(1<<20, time.Minute)
	f.service = NewTranscriptionService(
		f.recognizer, f.enhancer, f.synthesizer, f.jobs, router, f.notifier, cfg, zap.NewNop())
	return f
}

func shortAudio() entities.AudioPayload {
	return entities.AudioPayload{Data: []byte("audio"), MIMEType: "audio/mpeg"}
}

func longAudio() entities.AudioPayload {
	return entities.AudioPayload{
		Data:     make([]byte, 2<<20),
		MIMEType: "audio/mpeg",
	}
}

func TestSubmit_RejectsInvalidAudio(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{})

	_, err := f.service.Submit(context.Background(), "u1", entities.AudioPayload{
		Data: []byte("x"), MIMEType: "application/pdf",
	})
	if !domain.IsValidation(err) {
		t.Errorf("Expected ValidationError before any provider call, got %v", err)
	}
}

func TestSubmit_HighConfidenceSkipsEnhancement(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{ConfidenceThreshold: 0.9})
	f.recognizer.alternatives = alternatives("raw transcript", 0.95)

	outcome, err := f.service.Submit(context.Background(), "u1", shortAudio())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.Async {
		t.Fatal("Expected sync outcome")
	}
	if f.enhancer.calls != 0 {
		t.Error("Expected enhancement to be skipped at high confidence")
	}
	if outcome.Result.BestText() != "raw transcript" {
		t.Errorf("Expected raw text, got %q", outcome.Result.BestText())
	}
}

func TestSubmit_LowConfidenceTriggersEnhancement(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{ConfidenceThreshold: 0.9})
	f.recognizer.alternatives = alternatives("raw transcript", 0.5)

	outcome, err := f.service.Submit(context.Background(), "u1", shortAudio())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if f.enhancer.calls != 1 {
		t.Error("Expected enhancement to run at low confidence")
	}
	if outcome.Result.EnhancedText != "enhanced text" {
		t.Errorf("Expected enhanced text, got %q", outcome.Result.EnhancedText)
	}
	if outcome.Result.Alternatives[0].Text != "raw transcript" {
		t.Error("Expected raw alternative to be preserved")
	}
}

func TestSubmit_EnhancementFailureKeepsRawText(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{ConfidenceThreshold: 0.9})
	f.recognizer.alternatives = alternatives("raw transcript", 0.5)
	f.enhancer.err = errProviderDown

	outcome, err := f.service.Submit(context.Background(), "u1", shortAudio())
	if err != nil {
		t.Fatalf("Enhancement failure must not fail the request: %v", err)
	}
	if outcome.Result.EnhancedText != "" {
		t.Error("Expected no enhanced text after enhancement failure")
	}
	if outcome.Result.BestText() != "raw transcript" {
		t.Errorf("Expected raw text, got %q", outcome.Result.BestText())
	}
}

func TestSubmit_SynthesisFailureOmitsPreview(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{})
	f.recognizer.alternatives = alternatives("raw transcript", 0.95)
	f.synthesizer.err = errProviderDown

	outcome, err := f.service.Submit(context.Background(), "u1", shortAudio())
	if err != nil {
		t.Fatalf("Synthesis failure must not fail the request: %v", err)
	}
	if outcome.Result.AudioPreview != nil {
		t.Error("Expected no audio preview after synthesis failure")
	}
	if outcome.Result.BestText() == "" {
		t.Error("Expected text field to be present despite synthesis failure")
	}
}

func TestSubmit_SynthesizesFinalText(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{})
	f.recognizer.alternatives = alternatives("raw transcript", 0.95)

	outcome, err := f.service.Submit(context.Background(), "u1", shortAudio())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if string(outcome.Result.AudioPreview) != "mp3" {
		t.Error("Expected audio preview from synthesizer")
	}
}

func TestSubmit_RecognitionFailureIsFatal(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{})
	f.recognizer.recognizeErr = domain.NewProviderError("fake", domain.StageRecognize, errProviderDown)

	_, err := f.service.Submit(context.Background(), "u1", shortAudio())
	if !domain.IsProvider(err) {
		t.Errorf("Expected ProviderError, got %v", err)
	}
}

func TestSubmit_TimeoutBecomesProviderError(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{RecognizeTimeout: 20 * time.Millisecond})
	f.recognizer.waitForCtx = true

	_, err := f.service.Submit(context.Background(), "u1", shortAudio())
	if !domain.IsProvider(err) {
		t.Fatalf("Expected ProviderError on timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded in chain, got %v", err)
	}
}

func TestSubmit_LongPayloadReturnsReceipt(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{})

	outcome, err := f.service.Submit(context.Background(), "u1", longAudio())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !outcome.Async {
		t.Fatal("Expected async receipt for long payload")
	}
	if outcome.JobID != "op-123" {
		t.Errorf("Expected provider job id, got %q", outcome.JobID)
	}

	job, err := f.jobs.Get(context.Background(), "op-123")
	if err != nil {
		t.Fatalf("Expected registered job: %v", err)
	}
	if job.Status != entities.JobStatusProcessing {
		t.Errorf("Expected processing status, got %s", job.Status)
	}
	// Long submissions never run the optional stages inline.
	if f.enhancer.calls != 0 || f.synthesizer.calls != 0 {
		t.Error("Expected no inline enhancement/synthesis on the long path")
	}
}

func TestResolveCallback_RoundTrip(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{ConfidenceThreshold: 0.9})
	ctx := context.Background()

	if _, err := f.service.Submit(ctx, "u1", longAudio()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	applied, err := f.service.ResolveCallback(ctx, "op-123", false, "", alternatives("callback text", 0.5))
	if err != nil {
		t.Fatalf("ResolveCallback failed: %v", err)
	}
	if !applied {
		t.Fatal("Expected first callback to be applied")
	}

	job, err := f.service.GetJob(ctx, "u1", "op-123")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Status != entities.JobStatusCompleted {
		t.Errorf("Expected completed, got %s", job.Status)
	}
	// Post-processing ran on callback under the same confidence rule.
	if job.Result.EnhancedText != "enhanced text" {
		t.Errorf("Expected enhancement after callback, got %q", job.Result.EnhancedText)
	}

	// A duplicate callback is accepted but does not overwrite.
	applied, err = f.service.ResolveCallback(ctx, "op-123", false, "", alternatives("other text", 0.99))
	if err != nil {
		t.Fatalf("Duplicate callback errored: %v", err)
	}
	if applied {
		t.Error("Expected duplicate callback not to be applied")
	}

	job, _ = f.service.GetJob(ctx, "u1", "op-123")
	if job.Result.Alternatives[0].Text != "callback text" {
		t.Error("Expected first resolution to win")
	}

	if len(f.notifier.events) != 1 || f.notifier.events[0] != "op-123:completed" {
		t.Errorf("Expected one completion event, got %v", f.notifier.events)
	}
}

func TestResolveCallback_FailedJob(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{})
	ctx := context.Background()

	if _, err := f.service.Submit(ctx, "u1", longAudio()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	applied, err := f.service.ResolveCallback(ctx, "op-123", true, "backend exploded", nil)
	if err != nil {
		t.Fatalf("ResolveCallback failed: %v", err)
	}
	if !applied {
		t.Fatal("Expected failure callback to be applied")
	}

	job, _ := f.service.GetJob(ctx, "u1", "op-123")
	if job.Status != entities.JobStatusFailed {
		t.Errorf("Expected failed status, got %s", job.Status)
	}
	if job.Result.FailureReason != "backend exploded" {
		t.Errorf("Unexpected failure reason %q", job.Result.FailureReason)
	}
}

func TestResolveCallback_UnknownJob(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{})

	_, err := f.service.ResolveCallback(context.Background(), "forged-id", false, "", alternatives("x", 1))
	if !errors.Is(err, domain.ErrUnknownJob) {
		t.Errorf("Expected ErrUnknownJob, got %v", err)
	}
}

func TestGetJob_WrongUser(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{})
	ctx := context.Background()

	if _, err := f.service.Submit(ctx, "u1", longAudio()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := f.service.GetJob(ctx, "u2", "op-123"); !errors.Is(err, domain.ErrUnknownJob) {
		t.Errorf("Expected ErrUnknownJob for another user's job, got %v", err)
	}
}

func TestOneShotHelpers_BestEffort(t *testing.T) {
	f := newTranscriptionFixture(TranscriptionConfig{})
	ctx := context.Background()

	f.enhancer.err = errProviderDown
	if got := f.service.Enhance(ctx, "original"); got != "original" {
		t.Errorf("Expected original text on enhancer failure, got %q", got)
	}

	f.synthesizer.err = errProviderDown
	if got := f.service.Synthesize(ctx, "text"); got != nil {
		t.Error("Expected nil audio on synthesizer failure")
	}
}
