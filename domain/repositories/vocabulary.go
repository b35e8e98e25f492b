package repositories

import (
	"context"

	"github.com/vocalis-app/vocalis/domain/entities"
)

// VocabularyRepository is the durable per-user phrase store.
type VocabularyRepository interface {
	// Add stores a phrase. It is idempotent: re-adding an existing
	// (user, text) pair returns inserted=false without error.
	Add(ctx context.Context, userID, text string, boost float64) (inserted bool, err error)
	// Remove deletes a phrase, returning removed=false when it did not exist.
	Remove(ctx context.Context, userID, text string) (removed bool, err error)
	// List returns the user's phrases ordered by text for stable display.
	List(ctx context.Context, userID string) (entities.VocabularySnapshot, error)
}
