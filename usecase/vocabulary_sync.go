package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/domain/repositories"
)

// VocabularySyncer pushes a user's current vocabulary snapshot into the
// recognition provider. At most one push per user is in flight; a sync
// requested while one is running is coalesced into a rerun that takes a
// fresh snapshot, so no mutation is ever left out of the final push.
type VocabularySyncer struct {
	vocabulary repositories.VocabularyRepository
	recognizer repositories.SpeechRecognizer
	logger     *zap.Logger

	mu     sync.Mutex
	states map[string]*syncState
}

type syncState struct {
	running bool
	pending bool
}

// NewVocabularySyncer creates a new vocabulary syncer
func NewVocabularySyncer(
	vocabulary repositories.VocabularyRepository,
	recognizer repositories.SpeechRecognizer,
	logger *zap.Logger,
) *VocabularySyncer {
	return &VocabularySyncer{
		vocabulary: vocabulary,
		recognizer: recognizer,
		logger:     logger,
		states:     make(map[string]*syncState),
	}
}

// Sync reads the user's current snapshot and pushes it to the provider.
// If a push for the same user is already running, the call marks it
// pending and returns nil immediately; the running call reruns with a
// fresh snapshot before finishing. The returned error is a soft failure:
// stored phrases stay committed regardless.
func (s *VocabularySyncer) Sync(ctx context.Context, userID string) error {
	s.mu.Lock()
	state, ok := s.states[userID]
	if !ok {
		state = &syncState{}
		s.states[userID] = state
	}
	if state.running {
		state.pending = true
		s.mu.Unlock()
		return nil
	}
	state.running = true
	s.mu.Unlock()

	var err error
	for {
		err = s.pushOnce(ctx, userID)

		s.mu.Lock()
		if state.pending {
			// A mutation landed while we were pushing; go again with
			// a fresh snapshot.
			state.pending = false
			s.mu.Unlock()
			continue
		}
		state.running = false
		s.mu.Unlock()
		return err
	}
}

func (s *VocabularySyncer) pushOnce(ctx context.Context, userID string) error {
	snapshot, err := s.vocabulary.List(ctx, userID)
	if err != nil {
		s.logger.Warn("Vocabulary snapshot failed, recognition bias not updated",
			zap.String("user_id", userID),
			zap.Error(err))
		return err
	}

	if err := s.recognizer.PushVocabulary(ctx, userID, snapshot); err != nil {
		s.logger.Warn("Vocabulary push failed, phrases saved locally only",
			zap.String("user_id", userID),
			zap.Error(err))
		return err
	}

	s.logger.Info("Vocabulary pushed",
		zap.String("user_id", userID),
		zap.Int("phrases", len(snapshot)))
	return nil
}
