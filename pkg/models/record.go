package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AnnotationRecord is the versioned envelope produced by one pipeline run.
// The JSON shape is consumed by downstream indexing systems and must not
// change field names or nesting.
type AnnotationRecord struct {
	Index       string       `json:"index"`
	ID          string       `json:"id"`
	Version     int          `json:"version"`
	SeqNo       int64        `json:"seq_no"`
	PrimaryTerm int          `json:"primary_term"`
	Found       bool         `json:"found"`
	Source      SourceRecord `json:"source"`
}

// SourceRecord holds the annotated content of a single video.
type SourceRecord struct {
	Description  string                   `json:"description"`
	Title        *string                  `json:"title"`
	FileID       int64                    `json:"file_id"`
	LlsKvID      int64                    `json:"lls_kv_id"`
	Thumbnail    string                   `json:"thumbnail"`
	ClipName     string                   `json:"clip_name"`
	ClipTitle    string                   `json:"clip_title"`
	Duration     string                   `json:"duration"`
	ProxyURI     string                   `json:"proxy_uri"`
	RelativePath string                   `json:"relative_path"`
	Tracks       Tracks                   `json:"tracks"`
	Subtitles    map[string][]SubtitleCue `json:"subtitles"`
	// SubtitlesError marks a run whose audio stage failed entirely. The
	// visual track is still valid when this is set.
	SubtitlesError string `json:"subtitles_error,omitempty"`
}

// Tracks groups the timeline tracks of a record. Only the caption track
// exists today.
type Tracks struct {
	Caption CaptionTrack `json:"caption"`
}

// CaptionTrack is the ordered list of timeline events.
type CaptionTrack struct {
	EventData []EventRecord `json:"eventData"`
}

// EventRecord is one timeline marker derived from a sampled frame. Inpoint
// and outpoint are equal for instantaneous frame events.
type EventRecord struct {
	EventID       string  `json:"eventID"`
	EventImageURL string  `json:"eventImageURL"`
	Inpoint       float64 `json:"inpoint"`
	Outpoint      float64 `json:"outpoint"`
}

// SubtitleCue is one subtitle line in the exported record. In/outpoints are
// rendered as strings to match the downstream schema.
type SubtitleCue struct {
	Inpoint  string `json:"inpoint"`
	Outpoint string `json:"outpoint"`
	Text     string `json:"text"`
}

// NewRecordEnvelope creates an AnnotationRecord with a fresh identity and the
// epoch-derived envelope fields filled in. The source content is populated by
// the aggregator.
func NewRecordEnvelope(now time.Time) *AnnotationRecord {
	epoch := now.Unix()
	return &AnnotationRecord{
		Index:       fmt.Sprintf("%d", epoch),
		ID:          uuid.New().String(),
		Version:     1,
		SeqNo:       epoch,
		PrimaryTerm: 1,
		Found:       true,
		Source: SourceRecord{
			FileID:       epoch,
			LlsKvID:      lastDigits(epoch, 8),
			Thumbnail:    fmt.Sprintf("%s.png", uuid.New().String()[:8]),
			ClipName:     fmt.Sprintf("FIN-%02d", lastDigits(epoch, 2)),
			ClipTitle:    fmt.Sprintf("%d", epoch),
			Duration:     "00:00:00:00",
			RelativePath: "//",
			Tracks:       Tracks{Caption: CaptionTrack{EventData: make([]EventRecord, 0)}},
			Subtitles:    make(map[string][]SubtitleCue),
		},
	}
}

// Events returns the caption track's event list.
func (r *AnnotationRecord) Events() []EventRecord {
	return r.Source.Tracks.Caption.EventData
}

// SubtitleLanguages returns the language codes that carry a subtitle track.
func (r *AnnotationRecord) SubtitleLanguages() []string {
	langs := make([]string, 0, len(r.Source.Subtitles))
	for code := range r.Source.Subtitles {
		langs = append(langs, code)
	}
	return langs
}

func lastDigits(n int64, count int) int64 {
	mod := int64(1)
	for i := 0; i < count; i++ {
		mod *= 10
	}
	if n < 0 {
		n = -n
	}
	return n % mod
}
