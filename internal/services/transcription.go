package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/blacx/annotator/pkg/models"
)

// OpenAITranscription implements TranscriptionService with Whisper.
type OpenAITranscription struct {
	cli     *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAITranscription creates a transcription service client.
func NewOpenAITranscription(cli *openai.Client, model string, timeout time.Duration) *OpenAITranscription {
	return &OpenAITranscription{cli: cli, model: model, timeout: timeout}
}

// Transcribe requests segment-level timestamps and returns the ordered
// segments in the source language plus the full transcript text.
func (t *OpenAITranscription) Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.cli.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return nil, "", &ServiceError{Service: "transcription", Operation: "transcribe", Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, "", &ServiceError{Service: "transcription", Operation: "transcribe", Err: fmt.Errorf("empty transcription result")}
	}

	segments := make([]models.TranscriptSegment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segments = append(segments, models.TranscriptSegment{
			StartSeconds: seg.Start,
			EndSeconds:   seg.End,
			Text:         seg.Text,
		})
	}

	// Whisper sometimes returns text without segment granularity; keep the
	// transcript as one span rather than dropping it.
	if len(segments) == 0 {
		segments = append(segments, models.TranscriptSegment{
			StartSeconds: 0,
			EndSeconds:   resp.Duration,
			Text:         text,
		})
	}

	return segments, text, nil
}
