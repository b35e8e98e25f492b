package usecase

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"but": true, "to": true, "of": true, "at": true, "in": true, "on": true,
}

// CorrectionService learns vocabulary from user-edited transcripts and
// feeds it back into the recognition bias.
type CorrectionService struct {
	vocabulary repositories.VocabularyRepository
	syncer     *VocabularySyncer
	logger     *zap.Logger
}

// NewCorrectionService creates a new correction service
func NewCorrectionService(
	vocabulary repositories.VocabularyRepository,
	syncer *VocabularySyncer,
	logger *zap.Logger,
) *CorrectionService {
	return &CorrectionService{
		vocabulary: vocabulary,
		syncer:     syncer,
		logger:     logger,
	}
}

// CorrectionResult reports one correction submission.
type CorrectionResult struct {
	// Added counts genuine insertions; tokens already in the vocabulary
	// are not counted.
	Added int `json:"added"`
	// Synced is false when new vocabulary was found but the provider
	// push failed; phrases are still saved locally.
	Synced bool `json:"synced"`
}

// SubmitCorrections diffs each original/corrected pair, filters the new
// tokens, stores the survivors as phrases, and syncs once for the whole
// batch. An empty candidate set means no new vocabulary and no sync.
func (s *CorrectionService) SubmitCorrections(ctx context.Context, userID string, pairs []entities.CorrectionPair, defaultBoost float64) (*CorrectionResult, error) {
	if len(pairs) == 0 {
		return nil, domain.NewValidationError("no correction pairs supplied")
	}
	if !entities.ValidBoost(defaultBoost) {
		return nil, domain.NewValidationError("boost must be a finite positive number")
	}

	candidates := extractCandidates(pairs)
	if len(candidates) == 0 {
		s.logger.Info("No new vocabulary in corrections", zap.String("user_id", userID))
		return &CorrectionResult{Added: 0, Synced: true}, nil
	}

	added := 0
	for _, token := range candidates {
		inserted, err := s.vocabulary.Add(ctx, userID, token, defaultBoost)
		if err != nil {
			return nil, err
		}
		if inserted {
			added++
		}
	}

	// One sync for the whole batch, not one per phrase.
	synced := s.syncer.Sync(ctx, userID) == nil

	s.logger.Info("Corrections processed",
		zap.String("user_id", userID),
		zap.Int("pairs", len(pairs)),
		zap.Int("added", added),
		zap.Bool("synced", synced))

	return &CorrectionResult{Added: added, Synced: synced}, nil
}

// extractCandidates computes the union over all pairs of tokens present
// after correction but not before, keeping only plausible vocabulary:
// longer than two characters, purely alphabetic, not a stop word.
func extractCandidates(pairs []entities.CorrectionPair) []string {
	changed := make(map[string]bool)
	for _, pair := range pairs {
		original := make(map[string]bool)
		for _, token := range strings.Fields(strings.ToLower(pair.OriginalText)) {
			original[token] = true
		}
		for _, token := range strings.Fields(strings.ToLower(pair.CorrectedText)) {
			if !original[token] {
				changed[token] = true
			}
		}
	}

	var candidates []string
	for token := range changed {
		if keepToken(token) {
			candidates = append(candidates, token)
		}
	}
	return candidates
}

func keepToken(token string) bool {
	if len([]rune(token)) <= 2 || stopWords[token] {
		return false
	}
	for _, r := range token {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
