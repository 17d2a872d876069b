package pipeline

import (
	"errors"
	"fmt"
)

var errEmptyTranscript = errors.New("transcription returned no segments")

// The error taxonomy of a pipeline run. Only decode failures
// (media.DecodeError) abort the run; every other kind is contained at the
// smallest granularity and recorded inline in the data it would have
// populated.

// AnalysisError is a per-frame vision failure, recovered by sentinel
// substitution.
type AnalysisError struct {
	FrameNumber int
	Timestamp   float64
	Err         error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("failed to analyze frame %d at %.2fs: %v", e.FrameNumber, e.Timestamp, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// AudioPipelineError is a stage-level audio failure. The visual pipeline is
// unaffected; the subtitle mapping degenerates to an error marker.
type AudioPipelineError struct {
	Stage string // "extract", "transcribe"
	Err   error
}

func (e *AudioPipelineError) Error() string {
	return fmt.Sprintf("audio pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *AudioPipelineError) Unwrap() error { return e.Err }

// TranslationError is a per-segment translation failure, recovered by falling
// back to the source text.
type TranslationError struct {
	Language string
	Segment  int
	Err      error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("failed to translate segment %d to %s: %v", e.Segment, e.Language, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// AssistantError is a query-level failure against the conversational backend,
// returned to the caller as a descriptive failed answer.
type AssistantError struct {
	Status string // run status or "timeout"
	Err    error
}

func (e *AssistantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assistant query failed (%s): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("assistant query failed (%s)", e.Status)
}

func (e *AssistantError) Unwrap() error { return e.Err }

// ExportFormatError marks an unsupported export format. Fatal for that export
// call only.
type ExportFormatError struct {
	Format string
}

func (e *ExportFormatError) Error() string {
	return fmt.Sprintf("unsupported export format: %s", e.Format)
}
