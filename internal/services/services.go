// Package services defines the contracts of the external analysis
// capabilities the pipeline depends on, and their OpenAI-backed
// implementations. The pipeline only ever sees the interfaces; tests swap in
// mocks.
package services

import (
	"context"
	"fmt"

	"github.com/blacx/annotator/pkg/models"
)

// ServiceError is a failure of an external analysis call: timeout, transport
// error or malformed output.
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Operation, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// VisionService describes a single video frame.
type VisionService interface {
	Describe(ctx context.Context, imageBytes []byte, timestamp float64) (models.FrameAnalysis, error)
}

// TranscriptionService transcribes an audio asset into timestamped segments
// plus the full source text.
type TranscriptionService interface {
	Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, string, error)
}

// LanguageDetector detects the language of a text. It never fails: on any
// backend error it returns its configured fallback code.
type LanguageDetector interface {
	Detect(ctx context.Context, text string) string
}

// TranslationService translates a text into the named target language. On
// failure it returns the original text unchanged; text never silently
// disappears.
type TranslationService interface {
	Translate(ctx context.Context, text, targetLanguageName string) string
}

// AssistantBackend is a conversational backend that retains an uploaded
// document as shared background knowledge across queries.
type AssistantBackend interface {
	// CreateContext uploads the document and returns a handle that later
	// Ask calls reference. Upload-once: the record is not resent per query.
	CreateContext(ctx context.Context, document []byte) (string, error)
	// Ask runs one query against a previously created context, blocking
	// until an answer, an explicit failure, or the polling limit.
	Ask(ctx context.Context, contextID, query string) (string, error)
}
