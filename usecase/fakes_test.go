package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

// fakeRecognizer is a configurable SpeechRecognizer for tests.
type fakeRecognizer struct {
	mu           sync.Mutex
	alternatives []entities.TranscriptAlternative
	recognizeErr error
	waitForCtx   bool // simulate a hung provider call
	submitID     string
	submitErr    error
	pushErr      error
	pushCount    int
	lastSnapshot entities.VocabularySnapshot

	// When set, PushVocabulary signals pushStarted and blocks until
	// pushRelease is closed.
	pushStarted chan struct{}
	pushRelease chan struct{}
}

var _ repositories.SpeechRecognizer = (*fakeRecognizer)(nil)

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) RecognizeSync(ctx context.Context, audio entities.AudioPayload, userID string) ([]entities.TranscriptAlternative, error) {
	if f.waitForCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.recognizeErr != nil {
		return nil, f.recognizeErr
	}
	return f.alternatives, nil
}

func (f *fakeRecognizer) SubmitAsync(ctx context.Context, audio entities.AudioPayload, userID, callbackURL string) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.submitID, nil
}

func (f *fakeRecognizer) PushVocabulary(ctx context.Context, userID string, snapshot entities.VocabularySnapshot) error {
	if f.pushStarted != nil {
		f.pushStarted <- struct{}{}
	}
	if f.pushRelease != nil {
		<-f.pushRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushCount++
	f.lastSnapshot = snapshot
	return f.pushErr
}

func (f *fakeRecognizer) pushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushCount
}

func (f *fakeRecognizer) snapshot() entities.VocabularySnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSnapshot
}

// fakeEnhancer returns a fixed string or error.
type fakeEnhancer struct {
	enhanced string
	err      error
	calls    int
}

var _ repositories.TextEnhancer = (*fakeEnhancer)(nil)

func (f *fakeEnhancer) Enhance(ctx context.Context, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.enhanced, nil
}

// fakeSynthesizer returns fixed audio or an error.
type fakeSynthesizer struct {
	audio []byte
	err   error
	calls int
}

var _ repositories.SpeechSynthesizer = (*fakeSynthesizer)(nil)

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

// fakeNotifier records published job events.
type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) NotifyJob(userID, providerJobID string, status entities.JobStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, providerJobID+":"+string(status))
}

var errProviderDown = errors.New("provider unavailable")
