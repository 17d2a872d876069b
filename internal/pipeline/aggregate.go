package pipeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/blacx/annotator/pkg/models"
)

// Aggregator folds the outputs of the visual and audio stages into a single
// AnnotationRecord.
type Aggregator struct {
	timecodeFPS int
	now         func() time.Time
}

// NewAggregator creates an aggregator. timecodeFPS is the frame rate used for
// the FF component of HH:MM:SS:FF timecodes; values below 1 fall back to 24.
func NewAggregator(timecodeFPS int) *Aggregator {
	if timecodeFPS < 1 {
		timecodeFPS = 24
	}
	return &Aggregator{timecodeFPS: timecodeFPS, now: time.Now}
}

// Aggregate builds the record for one run. frames and analyses must be
// parallel slices; a mismatch is a programming error upstream and panics.
func (g *Aggregator) Aggregate(
	frames []models.Frame,
	analyses []models.FrameAnalysis,
	subtitles *models.SubtitleSet,
	info *models.VideoInfo,
	videoPath string,
) *models.AnnotationRecord {
	if len(frames) != len(analyses) {
		panic(fmt.Sprintf("aggregate: %d frames but %d analyses", len(frames), len(analyses)))
	}

	record := models.NewRecordEnvelope(g.now())
	record.Source.ProxyURI = videoPath
	if info != nil {
		record.Source.Duration = g.FormatDuration(info.DurationSeconds)
	}

	events := make([]models.EventRecord, len(frames))
	for i := range frames {
		ts := frames[i].TimestampSeconds
		events[i] = models.EventRecord{
			EventID:  analyses[i].Description,
			Inpoint:  ts,
			Outpoint: ts,
		}
	}
	sort.SliceStable(events, func(a, b int) bool {
		return events[a].Inpoint < events[b].Inpoint
	})
	record.Source.Tracks.Caption.EventData = events

	if subtitles.Failed() {
		record.Source.SubtitlesError = subtitleFailureReason(subtitles)
	} else {
		for code, track := range subtitles.Tracks {
			record.Source.Subtitles[code] = models.Cues(track)
		}
	}

	return record
}

// FormatDuration renders seconds as an HH:MM:SS:FF timecode. The frame
// component is the whole frames elapsed within the final second at the
// configured timecode rate.
func (g *Aggregator) FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	whole := int(seconds)
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60
	frames := int((seconds - float64(whole)) * float64(g.timecodeFPS))
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}

func subtitleFailureReason(set *models.SubtitleSet) string {
	if set != nil && set.Err != "" {
		return set.Err
	}
	return "audio annotation unavailable"
}
