package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

// JobRepository stores async transcription jobs in the
// "transcription_jobs" collection, keyed by the provider job id.
type JobRepository struct {
	collection *mongo.Collection
}

// NewJobRepository creates a MongoDB-backed job repository
func NewJobRepository(db *mongo.Database) repositories.JobRepository {
	return &JobRepository{
		collection: db.Collection("transcription_jobs"),
	}
}

// Register implements repositories.JobRepository
func (r *JobRepository) Register(ctx context.Context, job *entities.TranscriptionJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	if job.ProviderJobID == "" {
		return errors.New("provider job ID cannot be empty")
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, job); err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.ProviderJobID, err)
	}

	return nil
}

// Resolve implements repositories.JobRepository. The status filter makes
// the transition atomic; a second callback for an already resolved job
// matches nothing and leaves the stored result untouched.
func (r *JobRepository) Resolve(ctx context.Context, providerJobID string, status entities.JobStatus, result *entities.TranscriptionResult) (bool, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"status":      status,
			"result":      result,
			"resolved_at": now,
		},
	}

	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": providerJobID, "status": entities.JobStatusProcessing},
		update,
	)
	if err != nil {
		return false, fmt.Errorf("failed to resolve job %s: %w", providerJobID, err)
	}

	if res.MatchedCount == 1 {
		return true, nil
	}

	// Distinguish an unknown job from a duplicate resolution.
	if _, err := r.Get(ctx, providerJobID); err != nil {
		return false, err
	}
	return false, nil
}

// Get implements repositories.JobRepository
func (r *JobRepository) Get(ctx context.Context, providerJobID string) (*entities.TranscriptionJob, error) {
	var job entities.TranscriptionJob
	err := r.collection.FindOne(ctx, bson.M{"_id": providerJobID}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUnknownJob
		}
		return nil, fmt.Errorf("failed to get job %s: %w", providerJobID, err)
	}

	return &job, nil
}

// FailOlderThan implements repositories.JobRepository
func (r *JobRepository) FailOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	now := time.Now()

	res, err := r.collection.UpdateMany(
		ctx,
		bson.M{"status": entities.JobStatusProcessing, "created_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{
			"status":      entities.JobStatusFailed,
			"resolved_at": now,
			"result":      &entities.TranscriptionResult{FailureReason: "provider never delivered a result"},
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep orphaned jobs: %w", err)
	}

	return res.ModifiedCount, nil
}
