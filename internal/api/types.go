package api

import (
	"github.com/vocalis-app/vocalis/domain/entities"
)

// AddPhraseRequest represents the payload for adding a phrase.
// Boost defaults when omitted.
type AddPhraseRequest struct {
	Text  string  `json:"text"`
	Boost float64 `json:"boost,omitempty"`
}

// PhraseMutationResponse reports a phrase add/remove. Warning is set
// when the phrase is saved locally but the recognition bias is stale.
type PhraseMutationResponse struct {
	Applied bool   `json:"applied"`
	Warning string `json:"warning,omitempty"`
}

// ListPhrasesResponse carries the user's vocabulary.
type ListPhrasesResponse struct {
	Phrases entities.VocabularySnapshot `json:"phrases"`
}

// TranscriptionResponse is the outcome of a submission: a completed
// result for the sync path, or a receipt for the async path.
type TranscriptionResponse struct {
	Status       string                           `json:"status"`
	JobID        string                           `json:"job_id,omitempty"`
	Text         string                           `json:"text,omitempty"`
	EnhancedText string                           `json:"enhanced_text,omitempty"`
	Alternatives []entities.TranscriptAlternative `json:"alternatives,omitempty"`
	AudioPreview []byte                           `json:"audio_preview,omitempty"`
}

// JobResponse is the lookup view of an async job.
type JobResponse struct {
	JobID  string                        `json:"job_id"`
	Status entities.JobStatus            `json:"status"`
	Result *entities.TranscriptionResult `json:"result,omitempty"`
}

// CallbackRequest is the inbound payload from the async provider.
type CallbackRequest struct {
	ProviderJobID string                           `json:"provider_job_id"`
	Status        string                           `json:"status"`
	Error         string                           `json:"error,omitempty"`
	Alternatives  []entities.TranscriptAlternative `json:"alternatives,omitempty"`
}

// CallbackResponse acknowledges a callback, duplicate or not.
type CallbackResponse struct {
	Accepted  bool `json:"accepted"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// CorrectionsRequest represents a batch of user-edited transcripts.
type CorrectionsRequest struct {
	Pairs []entities.CorrectionPair `json:"pairs"`
	Boost float64                   `json:"boost,omitempty"`
}

// CorrectionsResponse reports how many new phrases were learned.
type CorrectionsResponse struct {
	Added   int    `json:"added"`
	Warning string `json:"warning,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
