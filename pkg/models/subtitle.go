package models

import (
	"strconv"
	"strings"
)

// TranscriptSegment is one transcribed (or translated) span of speech.
type TranscriptSegment struct {
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	Text         string  `json:"text"`
}

// SubtitleSet is the output of the audio stage: one track per language, all
// tracks sharing the source track's segment boundaries. A failed audio stage
// yields a set with Err set and no tracks.
type SubtitleSet struct {
	SourceLanguage string                         `json:"source_language,omitempty"`
	Tracks         map[string][]TranscriptSegment `json:"tracks,omitempty"`
	Err            string                         `json:"error,omitempty"`
}

// Failed reports whether the audio stage produced no usable tracks.
func (s *SubtitleSet) Failed() bool {
	return s == nil || s.Err != "" || len(s.Tracks) == 0
}

// Cues converts a track to the exported cue representation.
func Cues(segments []TranscriptSegment) []SubtitleCue {
	cues := make([]SubtitleCue, len(segments))
	for i, seg := range segments {
		cues[i] = SubtitleCue{
			Inpoint:  strconv.FormatFloat(seg.StartSeconds, 'f', -1, 64),
			Outpoint: strconv.FormatFloat(seg.EndSeconds, 'f', -1, 64),
			Text:     seg.Text,
		}
	}
	return cues
}

// JoinedText concatenates segment texts, used for language detection.
func JoinedText(segments []TranscriptSegment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = strings.TrimSpace(seg.Text)
	}
	return strings.Join(parts, " ")
}
