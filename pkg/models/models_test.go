package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewRecordEnvelope(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	record := NewRecordEnvelope(now)

	if record.Index != "1700000000" {
		t.Errorf("Expected index 1700000000, got %s", record.Index)
	}
	if record.ID == "" {
		t.Error("Expected non-empty record ID")
	}
	if record.Version != 1 || record.PrimaryTerm != 1 {
		t.Errorf("Expected version and primary term 1, got %d and %d", record.Version, record.PrimaryTerm)
	}
	if !record.Found {
		t.Error("Expected found=true")
	}
	if record.Source.FileID != 1700000000 {
		t.Errorf("Expected file_id 1700000000, got %d", record.Source.FileID)
	}
	if record.Source.LlsKvID != 0 {
		// 1700000000 ends in 00000000
		t.Errorf("Expected lls_kv_id 0, got %d", record.Source.LlsKvID)
	}
	if !strings.HasPrefix(record.Source.ClipName, "FIN-") {
		t.Errorf("Expected FIN- clip name, got %s", record.Source.ClipName)
	}
	if !strings.HasSuffix(record.Source.Thumbnail, ".png") {
		t.Errorf("Expected .png thumbnail, got %s", record.Source.Thumbnail)
	}
	if record.Source.RelativePath != "//" {
		t.Errorf("Expected relative path //, got %s", record.Source.RelativePath)
	}
	if record.Source.Subtitles == nil || record.Events() == nil {
		t.Error("Expected initialized subtitles map and event list")
	}
}

func TestRecordEnvelopeJSONShape(t *testing.T) {
	record := NewRecordEnvelope(time.Unix(1700000000, 0).UTC())
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	for _, key := range []string{"index", "id", "version", "seq_no", "primary_term", "found", "source"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected top-level key %q", key)
		}
	}

	source := raw["source"].(map[string]interface{})
	// Title is nullable but always present.
	if _, ok := source["title"]; !ok {
		t.Error("Expected title key in source")
	}
	tracks := source["tracks"].(map[string]interface{})
	caption := tracks["caption"].(map[string]interface{})
	if _, ok := caption["eventData"]; !ok {
		t.Error("Expected eventData key under tracks.caption")
	}
}

func TestSentinelAnalysis(t *testing.T) {
	sentinel := SentinelAnalysis("timeout calling vision service")

	if !sentinel.IsSentinel() {
		t.Error("Expected sentinel to report IsSentinel")
	}
	if sentinel.Description != "Error analyzing frame: timeout calling vision service" {
		t.Errorf("Unexpected sentinel description: %s", sentinel.Description)
	}
	if sentinel.SceneType != SceneTypeError {
		t.Errorf("Expected scene type %q, got %q", SceneTypeError, sentinel.SceneType)
	}
	if sentinel.ObjectsDetected == nil || len(sentinel.ObjectsDetected) != 0 {
		t.Error("Expected empty but non-nil objects list")
	}

	normal := FrameAnalysis{Description: "a street", SceneType: "outdoor"}
	if normal.IsSentinel() {
		t.Error("Normal analysis must not report IsSentinel")
	}
}

func TestCuesRenderBoundariesAsStrings(t *testing.T) {
	cues := Cues([]TranscriptSegment{
		{StartSeconds: 0, EndSeconds: 2.5, Text: "hello"},
		{StartSeconds: 2.5, EndSeconds: 5.25, Text: "world"},
	})

	if len(cues) != 2 {
		t.Fatalf("Expected 2 cues, got %d", len(cues))
	}
	if cues[0].Inpoint != "0" || cues[0].Outpoint != "2.5" {
		t.Errorf("Unexpected first cue boundaries: %s..%s", cues[0].Inpoint, cues[0].Outpoint)
	}
	if cues[1].Outpoint != "5.25" {
		t.Errorf("Unexpected second cue outpoint: %s", cues[1].Outpoint)
	}
}

func TestJoinedText(t *testing.T) {
	got := JoinedText([]TranscriptSegment{
		{Text: "  hello there "},
		{Text: "how are you"},
	})
	if got != "hello there how are you" {
		t.Errorf("Unexpected joined text: %q", got)
	}

	if got := JoinedText(nil); got != "" {
		t.Errorf("Expected empty join for no segments, got %q", got)
	}
}

func TestSubtitleSetFailed(t *testing.T) {
	tests := []struct {
		name string
		set  *SubtitleSet
		want bool
	}{
		{"nil set", nil, true},
		{"error set", &SubtitleSet{Err: "boom"}, true},
		{"empty tracks", &SubtitleSet{}, true},
		{
			"populated",
			&SubtitleSet{Tracks: map[string][]TranscriptSegment{"en-US": {{Text: "hi"}}}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.set.Failed(); got != tt.want {
				t.Errorf("Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLanguageName(t *testing.T) {
	if got := LanguageName("ar-AR"); got != "Arabic" {
		t.Errorf("Expected Arabic, got %s", got)
	}
	if got := LanguageName("fr-FR"); got != "fr-FR" {
		t.Errorf("Expected passthrough for unknown code, got %s", got)
	}
}

func TestQueryAnswerClamp(t *testing.T) {
	over := &QueryAnswer{Confidence: 1.7}
	over.Clamp()
	if over.Confidence != 1 {
		t.Errorf("Expected clamp to 1, got %f", over.Confidence)
	}

	under := &QueryAnswer{Confidence: -0.2}
	under.Clamp()
	if under.Confidence != 0 {
		t.Errorf("Expected clamp to 0, got %f", under.Confidence)
	}
}
