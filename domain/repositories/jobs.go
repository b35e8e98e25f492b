package repositories

import (
	"context"
	"time"

	"github.com/vocalis-app/vocalis/domain/entities"
)

// JobRepository tracks outstanding asynchronous transcription jobs,
// keyed by the provider-issued job id.
type JobRepository interface {
	// Register stores a new processing job.
	Register(ctx context.Context, job *entities.TranscriptionJob) error
	// Resolve transitions a job to a terminal status and attaches its
	// result. The first resolution wins: resolving an already terminal
	// job returns applied=false without error. Resolving a job id that
	// was never registered returns domain.ErrUnknownJob.
	Resolve(ctx context.Context, providerJobID string, status entities.JobStatus, result *entities.TranscriptionResult) (applied bool, err error)
	// Get fetches a job by provider id, domain.ErrUnknownJob when absent.
	Get(ctx context.Context, providerJobID string) (*entities.TranscriptionJob, error)
	// FailOlderThan marks processing jobs older than maxAge as failed.
	// Hardening sweep for jobs whose provider never called back.
	FailOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)
}
