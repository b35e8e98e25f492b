// Package memory provides in-memory repository implementations used for
// development mode and tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

// VocabularyRepository keeps phrases in a per-user map guarded by a mutex.
type VocabularyRepository struct {
	mu      sync.RWMutex
	phrases map[string]map[string]entities.Phrase // userID -> text -> phrase
}

// NewVocabularyRepository creates an empty in-memory vocabulary repository
func NewVocabularyRepository() *VocabularyRepository {
	return &VocabularyRepository{
		phrases: make(map[string]map[string]entities.Phrase),
	}
}

var _ repositories.VocabularyRepository = (*VocabularyRepository)(nil)

// Add implements repositories.VocabularyRepository
func (r *VocabularyRepository) Add(ctx context.Context, userID, text string, boost float64) (bool, error) {
	if userID == "" {
		return false, errors.New("user ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	userPhrases, ok := r.phrases[userID]
	if !ok {
		userPhrases = make(map[string]entities.Phrase)
		r.phrases[userID] = userPhrases
	}

	if _, exists := userPhrases[text]; exists {
		return false, nil
	}

	userPhrases[text] = entities.Phrase{
		UserID:    userID,
		Text:      text,
		Boost:     boost,
		CreatedAt: time.Now(),
	}
	return true, nil
}

// Remove implements repositories.VocabularyRepository
func (r *VocabularyRepository) Remove(ctx context.Context, userID, text string) (bool, error) {
	if userID == "" {
		return false, errors.New("user ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	userPhrases, ok := r.phrases[userID]
	if !ok {
		return false, nil
	}
	if _, exists := userPhrases[text]; !exists {
		return false, nil
	}

	delete(userPhrases, text)
	return true, nil
}

// List implements repositories.VocabularyRepository
func (r *VocabularyRepository) List(ctx context.Context, userID string) (entities.VocabularySnapshot, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(entities.VocabularySnapshot, 0, len(r.phrases[userID]))
	for _, p := range r.phrases[userID] {
		snapshot = append(snapshot, p)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].Text < snapshot[j].Text
	})

	return snapshot, nil
}
