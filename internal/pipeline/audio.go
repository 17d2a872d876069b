package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/blacx/annotator/internal/cache"
	"github.com/blacx/annotator/internal/logging"
	"github.com/blacx/annotator/internal/metrics"
	"github.com/blacx/annotator/internal/services"
	"github.com/blacx/annotator/pkg/models"
)

// AudioExtractor pulls the audio track of a video into a standalone file.
// Satisfied by media.FFmpeg.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, inputPath, audioOut string) error
}

// AudioAnnotator produces the multilingual subtitle tracks for a video:
// extract audio, transcribe it, detect the spoken language, translate the
// transcript into every other supported language.
//
// Any stage failure marks the whole subtitle set as failed; it never aborts
// the surrounding run. The visual track is built regardless.
type AudioAnnotator struct {
	ffmpeg      AudioExtractor
	transcriber services.TranscriptionService
	detector    services.LanguageDetector
	translator  services.TranslationService
	cache       *cache.Cache
	tempDir     string
	log         *logging.Logger
}

func NewAudioAnnotator(
	ffmpeg AudioExtractor,
	transcriber services.TranscriptionService,
	detector services.LanguageDetector,
	translator services.TranslationService,
	c *cache.Cache,
	tempDir string,
	log *logging.Logger,
) *AudioAnnotator {
	return &AudioAnnotator{
		ffmpeg:      ffmpeg,
		transcriber: transcriber,
		detector:    detector,
		translator:  translator,
		cache:       c,
		tempDir:     tempDir,
		log:         log,
	}
}

// Annotate builds the subtitle set for videoPath. The returned set is never
// nil; on failure its Err field names the stage that broke.
func (a *AudioAnnotator) Annotate(ctx context.Context, videoPath string) *models.SubtitleSet {
	audioPath := filepath.Join(a.tempDir, "audio-"+uuid.New().String()+".wav")
	defer os.Remove(audioPath)

	if err := a.ffmpeg.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		return a.failed(&AudioPipelineError{Stage: "extract", Err: err})
	}

	segments, fullText, err := a.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return a.failed(&AudioPipelineError{Stage: "transcribe", Err: err})
	}
	if len(segments) == 0 {
		return a.failed(&AudioPipelineError{Stage: "transcribe", Err: errEmptyTranscript})
	}
	metrics.TranscriptSegmentsTotal.Add(float64(len(segments)))

	text := strings.TrimSpace(fullText)
	if text == "" {
		text = models.JoinedText(segments)
	}

	// The source track keeps the detected code even outside the supported
	// set; translation still targets every supported language.
	sourceLang := a.detector.Detect(ctx, text)
	if sourceLang == "" {
		sourceLang = models.DefaultLanguage
	}

	set := &models.SubtitleSet{
		SourceLanguage: sourceLang,
		Tracks:         map[string][]models.TranscriptSegment{sourceLang: segments},
	}

	for code := range models.SupportedLanguages {
		if code == sourceLang {
			continue
		}
		set.Tracks[code] = a.translateTrack(ctx, segments, code)
	}

	return set
}

// translateTrack translates every segment into the target language. Segment
// boundaries are copied from the source track, so all tracks stay aligned
// cue for cue. A segment whose translation fails keeps its source text.
func (a *AudioAnnotator) translateTrack(ctx context.Context, segments []models.TranscriptSegment, targetCode string) []models.TranscriptSegment {
	targetName := models.LanguageName(targetCode)
	out := make([]models.TranscriptSegment, len(segments))
	for i, seg := range segments {
		out[i] = models.TranscriptSegment{
			StartSeconds: seg.StartSeconds,
			EndSeconds:   seg.EndSeconds,
			Text:         a.translate(ctx, seg.Text, targetCode, targetName),
		}
	}
	return out
}

func (a *AudioAnnotator) translate(ctx context.Context, text, targetCode, targetName string) string {
	if a.cache != nil {
		if cached, ok := a.cache.GetTranslation(ctx, cache.TranslationKey(targetCode, text)); ok {
			return cached
		}
	}

	translated := a.translator.Translate(ctx, text, targetName)
	if translated == text {
		// Either a no-op translation or the source-text fallback after a
		// backend failure. Both are safe to surface, neither is cached.
		metrics.TranslationFallbacksTotal.WithLabelValues(targetCode).Inc()
		return translated
	}

	if a.cache != nil {
		a.cache.SetTranslation(ctx, cache.TranslationKey(targetCode, text), translated)
	}
	return translated
}

func (a *AudioAnnotator) failed(err *AudioPipelineError) *models.SubtitleSet {
	a.log.WithError(err).Errorf("audio annotation failed at stage %s", err.Stage)
	metrics.AudioStageFailuresTotal.WithLabelValues(err.Stage).Inc()
	return &models.SubtitleSet{Err: err.Error()}
}
