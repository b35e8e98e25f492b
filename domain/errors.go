// Package domain holds the error taxonomy shared by the usecase and
// adapter layers.
package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownJob is returned when a callback references a provider job id
// that was never registered.
var ErrUnknownJob = errors.New("unknown transcription job")

// ValidationError marks caller mistakes: malformed audio, empty phrase
// text, non-positive boost. Never retried, surfaced before any provider
// call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Pipeline stages used to classify provider failures.
const (
	StageRecognize  = "recognize"
	StageSubmit     = "submit"
	StageEnhance    = "enhance"
	StageSynthesize = "synthesize"
	StageVocabPush  = "vocabulary_push"
)

// ProviderError wraps a failure from an external speech/LLM backend.
// Timeouts are ProviderErrors wrapping context.DeadlineExceeded.
type ProviderError struct {
	Stage    string
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed at %s: %v", e.Provider, e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with its originating provider and stage.
func NewProviderError(provider, stage string, err error) *ProviderError {
	return &ProviderError{Stage: stage, Provider: provider, Err: err}
}

// IsProvider reports whether err is a ProviderError.
func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
