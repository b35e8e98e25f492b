package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

// DefaultBoost applies when a caller omits the boost value.
const DefaultBoost = 10.0

// VocabularyService manages per-user phrases and keeps the recognition
// provider's bias in step with them.
type VocabularyService struct {
	vocabulary repositories.VocabularyRepository
	syncer     *VocabularySyncer
	logger     *zap.Logger
}

// NewVocabularyService creates a new vocabulary service
func NewVocabularyService(
	vocabulary repositories.VocabularyRepository,
	syncer *VocabularySyncer,
	logger *zap.Logger,
) *VocabularyService {
	return &VocabularyService{
		vocabulary: vocabulary,
		syncer:     syncer,
		logger:     logger,
	}
}

// MutationResult reports a phrase mutation. Synced=false with Applied=true
// means the phrase is saved locally but the recognition bias is not yet
// updated, a soft warning rather than a failure.
type MutationResult struct {
	Applied bool `json:"applied"`
	Synced  bool `json:"synced"`
}

// AddPhrase validates and stores a phrase, then syncs the vocabulary.
// Re-adding an existing phrase is a no-op reported as Applied=false.
func (s *VocabularyService) AddPhrase(ctx context.Context, userID, text string, boost float64) (*MutationResult, error) {
	normalized := entities.NormalizePhraseText(text)
	if normalized == "" {
		return nil, domain.NewValidationError("phrase cannot be empty")
	}
	if !entities.ValidBoost(boost) {
		return nil, domain.NewValidationError("boost must be a finite positive number")
	}

	inserted, err := s.vocabulary.Add(ctx, userID, normalized, boost)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return &MutationResult{Applied: false, Synced: true}, nil
	}

	synced := s.syncer.Sync(ctx, userID) == nil
	s.logger.Info("Phrase added",
		zap.String("user_id", userID),
		zap.String("text", normalized),
		zap.Bool("synced", synced))

	return &MutationResult{Applied: true, Synced: synced}, nil
}

// RemovePhrase deletes a phrase and syncs the vocabulary when it existed.
func (s *VocabularyService) RemovePhrase(ctx context.Context, userID, text string) (*MutationResult, error) {
	normalized := entities.NormalizePhraseText(text)
	if normalized == "" {
		return nil, domain.NewValidationError("phrase cannot be empty")
	}

	removed, err := s.vocabulary.Remove(ctx, userID, normalized)
	if err != nil {
		return nil, err
	}
	if !removed {
		return &MutationResult{Applied: false, Synced: true}, nil
	}

	synced := s.syncer.Sync(ctx, userID) == nil
	s.logger.Info("Phrase removed",
		zap.String("user_id", userID),
		zap.String("text", normalized),
		zap.Bool("synced", synced))

	return &MutationResult{Applied: true, Synced: synced}, nil
}

// ListPhrases returns the user's phrases ordered for display.
func (s *VocabularyService) ListPhrases(ctx context.Context, userID string) (entities.VocabularySnapshot, error) {
	return s.vocabulary.List(ctx, userID)
}
