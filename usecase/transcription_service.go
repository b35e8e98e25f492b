package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
	"github.com/vocalis-app/vocalis/domain/repositories"
	"github.com/vocalis-app/vocalis/internal/intake"
)

// TranscriptionConfig holds the orchestrator's tuning constants.
type TranscriptionConfig struct {
	// ConfidenceThreshold gates enhancement: a best alternative below it
	// is considered unreliable enough to warrant correction. Evaluated
	// on the raw recognizer confidence.
	ConfidenceThreshold float64
	// RecognizeTimeout bounds the synchronous recognition call.
	RecognizeTimeout time.Duration
	// CallbackURL is where the async provider deposits results.
	CallbackURL string
}

// JobNotifier receives async-job completion events.
type JobNotifier interface {
	NotifyJob(userID, providerJobID string, status entities.JobStatus)
}

// TranscriptionService drives a transcription submission end to end:
// classify, recognize, optionally enhance and synthesize, assemble the
// result, or register an async job and return a pending receipt.
type TranscriptionService struct {
	recognizer  repositories.SpeechRecognizer
	enhancer    repositories.TextEnhancer    // nil disables enhancement
	synthesizer repositories.SpeechSynthesizer // nil disables preview synthesis
	jobs        repositories.JobRepository
	router      *intake.Router
	notifier    JobNotifier // nil disables notifications
	config      TranscriptionConfig
	logger      *zap.Logger
}

// NewTranscriptionService creates a new transcription service
func NewTranscriptionService(
	recognizer repositories.SpeechRecognizer,
	enhancer repositories.TextEnhancer,
	synthesizer repositories.SpeechSynthesizer,
	jobs repositories.JobRepository,
	router *intake.Router,
	notifier JobNotifier,
	config TranscriptionConfig,
	logger *zap.Logger,
) *TranscriptionService {
	if config.ConfidenceThreshold == 0 {
		config.ConfidenceThreshold = 0.9
	}
	if config.RecognizeTimeout == 0 {
		config.RecognizeTimeout = 55 * time.Second
	}
	return &TranscriptionService{
		recognizer:  recognizer,
		enhancer:    enhancer,
		synthesizer: synthesizer,
		jobs:        jobs,
		router:      router,
		notifier:    notifier,
		config:      config,
		logger:      logger,
	}
}

// SubmissionOutcome is the caller-visible result of a submission: either
// a completed synchronous result or a receipt for a registered async job.
type SubmissionOutcome struct {
	Async  bool
	JobID  string
	Result *entities.TranscriptionResult
}

// Submit routes and processes one audio submission. Validation failures
// and synchronous recognition failures return an error; enhancement and
// synthesis failures degrade the result instead.
func (s *TranscriptionService) Submit(ctx context.Context, userID string, audio entities.AudioPayload) (*SubmissionOutcome, error) {
	route, err := s.router.Classify(audio)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Audio submission routed",
		zap.String("user_id", userID),
		zap.String("route", route.String()),
		zap.Int("bytes", len(audio.Data)))

	if route == intake.RouteLong {
		return s.submitAsync(ctx, userID, audio)
	}
	return s.recognizeSync(ctx, userID, audio)
}

func (s *TranscriptionService) recognizeSync(ctx context.Context, userID string, audio entities.AudioPayload) (*SubmissionOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RecognizeTimeout)
	defer cancel()

	alternatives, err := s.recognizer.RecognizeSync(ctx, audio, userID)
	if err != nil {
		if ctx.Err() != nil {
			err = domain.NewProviderError(s.recognizer.Name(), domain.StageRecognize, ctx.Err())
		}
		return nil, err
	}

	result := s.assembleResult(ctx, userID, alternatives)
	return &SubmissionOutcome{Result: result}, nil
}

func (s *TranscriptionService) submitAsync(ctx context.Context, userID string, audio entities.AudioPayload) (*SubmissionOutcome, error) {
	providerJobID, err := s.recognizer.SubmitAsync(ctx, audio, userID, s.config.CallbackURL)
	if err != nil {
		return nil, err
	}

	job := entities.NewAsyncJob(userID, providerJobID)
	if err := s.jobs.Register(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("Async transcription registered",
		zap.String("user_id", userID),
		zap.String("provider_job_id", providerJobID))

	return &SubmissionOutcome{Async: true, JobID: providerJobID}, nil
}

// ResolveCallback processes an inbound provider callback. It is
// idempotent: the first resolution wins and duplicates report
// applied=false without error. Unknown job ids return
// domain.ErrUnknownJob and mutate nothing.
func (s *TranscriptionService) ResolveCallback(ctx context.Context, providerJobID string, failed bool, failureReason string, alternatives []entities.TranscriptAlternative) (applied bool, err error) {
	job, err := s.jobs.Get(ctx, providerJobID)
	if err != nil {
		return false, err
	}

	var status entities.JobStatus
	var result *entities.TranscriptionResult
	if failed || len(alternatives) == 0 {
		status = entities.JobStatusFailed
		if failureReason == "" {
			failureReason = "recognition produced no result"
		}
		result = &entities.TranscriptionResult{FailureReason: failureReason}
	} else {
		// Post-processing for the long path runs here, once the
		// callback resolves the job, under the same confidence rule.
		status = entities.JobStatusCompleted
		result = s.assembleResult(ctx, job.UserID, alternatives)
	}

	applied, err = s.jobs.Resolve(ctx, providerJobID, status, result)
	if err != nil {
		return false, err
	}
	if !applied {
		s.logger.Info("Duplicate callback ignored",
			zap.String("provider_job_id", providerJobID))
		return false, nil
	}

	if s.notifier != nil {
		s.notifier.NotifyJob(job.UserID, providerJobID, status)
	}

	s.logger.Info("Async transcription resolved",
		zap.String("provider_job_id", providerJobID),
		zap.String("status", string(status)))

	return true, nil
}

// GetJob returns a job visible to the owning user.
func (s *TranscriptionService) GetJob(ctx context.Context, userID, providerJobID string) (*entities.TranscriptionJob, error) {
	job, err := s.jobs.Get(ctx, providerJobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, domain.ErrUnknownJob
	}
	return job, nil
}

// assembleResult runs the best-effort stages over recognized
// alternatives: enhancement when the best confidence is below the
// threshold, then synthesis of the final text. Stage failures degrade
// the result, never abort it.
func (s *TranscriptionService) assembleResult(ctx context.Context, userID string, alternatives []entities.TranscriptAlternative) *entities.TranscriptionResult {
	result := &entities.TranscriptionResult{Alternatives: alternatives}
	best := alternatives[0]

	if s.enhancer != nil && best.Confidence < s.config.ConfidenceThreshold {
		enhanced, err := s.enhancer.Enhance(ctx, best.Text)
		if err != nil {
			s.logger.Warn("Enhancement failed, keeping raw transcript",
				zap.String("user_id", userID),
				zap.Error(err))
		} else if enhanced != best.Text {
			result.EnhancedText = enhanced
		}
	}

	if s.synthesizer != nil {
		preview, err := s.synthesizer.Synthesize(ctx, result.BestText())
		if err != nil {
			s.logger.Warn("Synthesis failed, omitting audio preview",
				zap.String("user_id", userID),
				zap.Error(err))
		} else {
			result.AudioPreview = preview
		}
	}

	return result
}

// Enhance exposes one-shot text enhancement. Best effort: on provider
// failure the original text comes back unchanged.
func (s *TranscriptionService) Enhance(ctx context.Context, text string) string {
	if s.enhancer == nil {
		return text
	}
	enhanced, err := s.enhancer.Enhance(ctx, text)
	if err != nil {
		s.logger.Warn("One-shot enhancement failed", zap.Error(err))
		return text
	}
	return enhanced
}

// Synthesize exposes one-shot speech synthesis. Best effort: nil audio
// on failure or when synthesis is disabled.
func (s *TranscriptionService) Synthesize(ctx context.Context, text string) []byte {
	if s.synthesizer == nil {
		return nil
	}
	audio, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		s.logger.Warn("One-shot synthesis failed", zap.Error(err))
		return nil
	}
	return audio
}
