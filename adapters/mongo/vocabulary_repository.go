package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

// VocabularyRepository stores phrases in the "phrases" collection, one
// document per (user_id, text) pair.
type VocabularyRepository struct {
	collection *mongo.Collection
}

// NewVocabularyRepository creates a MongoDB-backed vocabulary repository
func NewVocabularyRepository(db *mongo.Database) repositories.VocabularyRepository {
	return &VocabularyRepository{
		collection: db.Collection("phrases"),
	}
}

// Add implements repositories.VocabularyRepository. The upsert with
// $setOnInsert makes re-adding an existing pair a no-op, atomically.
func (r *VocabularyRepository) Add(ctx context.Context, userID, text string, boost float64) (bool, error) {
	if userID == "" {
		return false, errors.New("user ID cannot be empty")
	}

	filter := bson.M{"user_id": userID, "text": text}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"text":       text,
			"boost":      boost,
			"created_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("failed to add phrase: %w", err)
	}

	return result.UpsertedCount == 1, nil
}

// Remove implements repositories.VocabularyRepository
func (r *VocabularyRepository) Remove(ctx context.Context, userID, text string) (bool, error) {
	if userID == "" {
		return false, errors.New("user ID cannot be empty")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "text": text})
	if err != nil {
		return false, fmt.Errorf("failed to remove phrase: %w", err)
	}

	return result.DeletedCount == 1, nil
}

// List implements repositories.VocabularyRepository
func (r *VocabularyRepository) List(ctx context.Context, userID string) (entities.VocabularySnapshot, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}

	opts := options.Find().SetSort(bson.M{"text": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list phrases for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var phrases []entities.Phrase
	if err := cursor.All(ctx, &phrases); err != nil {
		return nil, fmt.Errorf("failed to decode phrases: %w", err)
	}

	return entities.VocabularySnapshot(phrases), nil
}
