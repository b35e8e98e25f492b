package entities

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Phrase is a single vocabulary entry owned by a user. Text is stored
// normalized to lowercase and is unique per (UserID, Text).
type Phrase struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	Text      string    `json:"text" bson:"text"`
	Boost     float64   `json:"boost" bson:"boost"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// VocabularySnapshot is an immutable ordered view of a user's phrases,
// materialized at the moment a vocabulary push executes.
type VocabularySnapshot []Phrase

// NormalizePhraseText lowercases and trims phrase text before storage.
func NormalizePhraseText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// ValidBoost reports whether boost is a finite positive number.
func ValidBoost(boost float64) bool {
	return !math.IsNaN(boost) && !math.IsInf(boost, 0) && boost > 0
}

// AudioPayload is a transient audio submission. Duration is the declared
// or probed length of the audio; zero means unknown.
type AudioPayload struct {
	Data     []byte
	MIMEType string
	Duration time.Duration
}

func (a AudioPayload) Validate() error {
	if len(a.Data) == 0 {
		return errors.New("audio payload is empty")
	}
	if a.MIMEType == "" {
		return errors.New("audio MIME type is required")
	}
	return nil
}

// JobMode distinguishes in-request recognition from submit-then-callback.
type JobMode string

const (
	JobModeSync  JobMode = "sync"
	JobModeAsync JobMode = "async"
)

// JobStatus is the lifecycle state of a transcription job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// WordConfidence is a per-word recognition confidence in [0,1].
type WordConfidence struct {
	Word       string  `json:"word" bson:"word"`
	Confidence float64 `json:"confidence" bson:"confidence"`
}

// TranscriptAlternative is one recognition hypothesis. Alternatives are
// kept in provider rank order, best first.
type TranscriptAlternative struct {
	Text            string           `json:"text" bson:"text"`
	Confidence      float64          `json:"confidence" bson:"confidence"`
	WordConfidences []WordConfidence `json:"word_confidences,omitempty" bson:"word_confidences,omitempty"`
}

// TranscriptionResult is the terminal payload of a completed or failed job.
// EnhancedText is empty when the enhancement stage did not run; AudioPreview
// is nil when synthesis did not run or failed.
type TranscriptionResult struct {
	Alternatives  []TranscriptAlternative `json:"alternatives,omitempty" bson:"alternatives,omitempty"`
	EnhancedText  string                  `json:"enhanced_text,omitempty" bson:"enhanced_text,omitempty"`
	AudioPreview  []byte                  `json:"audio_preview,omitempty" bson:"audio_preview,omitempty"`
	FailureReason string                  `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
}

// BestText returns the text a caller should display: the enhanced text when
// enhancement ran, otherwise the best alternative's raw transcript.
func (r *TranscriptionResult) BestText() string {
	if r.EnhancedText != "" {
		return r.EnhancedText
	}
	if len(r.Alternatives) > 0 {
		return r.Alternatives[0].Text
	}
	return ""
}

// TranscriptionJob tracks one transcription request. Sync jobs are
// ephemeral; async jobs are durable and keyed by the provider-issued id.
type TranscriptionJob struct {
	ProviderJobID string               `json:"provider_job_id" bson:"_id"`
	UserID        string               `json:"user_id" bson:"user_id"`
	Mode          JobMode              `json:"mode" bson:"mode"`
	Status        JobStatus            `json:"status" bson:"status"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	ResolvedAt    *time.Time           `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	Result        *TranscriptionResult `json:"result,omitempty" bson:"result,omitempty"`
}

// NewAsyncJob creates a processing job for a provider-issued id.
func NewAsyncJob(userID, providerJobID string) *TranscriptionJob {
	return &TranscriptionJob{
		ProviderJobID: providerJobID,
		UserID:        userID,
		Mode:          JobModeAsync,
		Status:        JobStatusProcessing,
		CreatedAt:     time.Now(),
	}
}

// Resolved reports whether the job has reached a terminal state.
func (j *TranscriptionJob) Resolved() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// CorrectionPair is one original/edited transcript pair submitted by a user.
type CorrectionPair struct {
	OriginalText  string `json:"original_text"`
	CorrectedText string `json:"corrected_text"`
}
