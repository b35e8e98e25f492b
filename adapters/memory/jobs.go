package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/domain/repositories"
)

// JobRepository keeps async jobs in a map keyed by provider job id.
type JobRepository struct {
	mu   sync.Mutex
	jobs map[string]*entities.TranscriptionJob
}

// NewJobRepository creates an empty in-memory job repository
func NewJobRepository() *JobRepository {
	return &JobRepository{
		jobs: make(map[string]*entities.TranscriptionJob),
	}
}

var _ repositories.JobRepository = (*JobRepository)(nil)

// Register implements repositories.JobRepository
func (r *JobRepository) Register(ctx context.Context, job *entities.TranscriptionJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	if job.ProviderJobID == "" {
		return errors.New("provider job ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ProviderJobID]; exists {
		return errors.New("job already registered: " + job.ProviderJobID)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	stored := *job
	r.jobs[job.ProviderJobID] = &stored
	return nil
}

// Resolve implements repositories.JobRepository. First resolution wins.
func (r *JobRepository) Resolve(ctx context.Context, providerJobID string, status entities.JobStatus, result *entities.TranscriptionResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[providerJobID]
	if !ok {
		return false, domain.ErrUnknownJob
	}
	if job.Resolved() {
		return false, nil
	}

	now := time.Now()
	job.Status = status
	job.Result = result
	job.ResolvedAt = &now
	return true, nil
}

// Get implements repositories.JobRepository
func (r *JobRepository) Get(ctx context.Context, providerJobID string) (*entities.TranscriptionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[providerJobID]
	if !ok {
		return nil, domain.ErrUnknownJob
	}

	copied := *job
	return &copied, nil
}

// FailOlderThan implements repositories.JobRepository
func (r *JobRepository) FailOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	var failed int64
	for _, job := range r.jobs {
		if job.Status == entities.JobStatusProcessing && job.CreatedAt.Before(cutoff) {
			now := time.Now()
			job.Status = entities.JobStatusFailed
			job.ResolvedAt = &now
			job.Result = &entities.TranscriptionResult{FailureReason: "provider never delivered a result"}
			failed++
		}
	}

	return failed, nil
}
