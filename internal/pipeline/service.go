package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blacx/annotator/internal/cache"
	"github.com/blacx/annotator/internal/logging"
	"github.com/blacx/annotator/internal/media"
	"github.com/blacx/annotator/internal/metrics"
	"github.com/blacx/annotator/internal/storage"
	"github.com/blacx/annotator/internal/tracing"
	"github.com/blacx/annotator/pkg/models"
)

// Service orchestrates a full annotation run: sample frames, describe them,
// build subtitle tracks, aggregate into a record. Only decode failures abort
// a run; stage-level failures degrade the affected part of the record.
type Service struct {
	sampler    *media.Sampler
	visual     *VisualAnalyzer
	audio      *AudioAnnotator
	aggregator *Aggregator
	storage    *storage.Storage
	cache      *cache.Cache
	log        *logging.Logger
	workerID   string
}

// NewService wires the pipeline stages together. storage and cache may be
// nil; thumbnail uploads and record caching are skipped when they are.
func NewService(
	sampler *media.Sampler,
	visual *VisualAnalyzer,
	audio *AudioAnnotator,
	aggregator *Aggregator,
	stor *storage.Storage,
	c *cache.Cache,
	log *logging.Logger,
) *Service {
	return &Service{
		sampler:    sampler,
		visual:     visual,
		audio:      audio,
		aggregator: aggregator,
		storage:    stor,
		cache:      c,
		log:        log,
		workerID:   uuid.New().String(),
	}
}

// WorkerID identifies this service instance in job records.
func (s *Service) WorkerID() string { return s.workerID }

// StageResult reports the outcome of one pipeline stage within a run.
type StageResult struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "degraded", "failed"
	Error  string `json:"error,omitempty"`
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	Record *models.AnnotationRecord `json:"record"`
	Stages []StageResult            `json:"stages"`
}

// Run annotates the video at videoPath, installs the result in the session
// and returns it. onProgress, when non-nil, receives monotonically increasing
// completion fractions in [0,1].
func (s *Service) Run(
	ctx context.Context,
	session *Session,
	videoPath string,
	intervalSeconds float64,
	onProgress func(float64),
) (*RunResult, error) {
	span, ctx := tracing.StartSpan(ctx, "pipeline.run")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "video.path", videoPath)

	start := time.Now()
	progress := func(p float64) {
		if onProgress != nil {
			onProgress(p)
		}
	}
	result := &RunResult{}

	// Sampling is the only stage whose failure aborts the run.
	frames, info, err := s.sampleStage(ctx, videoPath, intervalSeconds)
	if err != nil {
		result.Stages = append(result.Stages, StageResult{Name: "sample", Status: "failed", Error: err.Error()})
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		tracing.LogError(span, err)
		return result, err
	}
	result.Stages = append(result.Stages, StageResult{Name: "sample", Status: "ok"})
	progress(models.ProgressSampled)

	analyses := s.analyzeStage(ctx, frames, progress)
	result.Stages = append(result.Stages, analysisStageResult(analyses))
	progress(models.ProgressAnalyzed)

	subtitles := s.audioStage(ctx, videoPath)
	if subtitles.Failed() {
		result.Stages = append(result.Stages, StageResult{Name: "audio", Status: "failed", Error: subtitles.Err})
	} else {
		result.Stages = append(result.Stages, StageResult{Name: "audio", Status: "ok"})
	}
	progress(models.ProgressAudio)

	record := s.aggregateStage(ctx, frames, analyses, subtitles, info, videoPath)
	result.Stages = append(result.Stages, StageResult{Name: "aggregate", Status: "ok"})
	result.Record = record

	session.SetResult(record, analyses)
	if s.cache != nil {
		if err := s.cache.SetRecord(ctx, record); err != nil {
			s.log.WithError(err).Warn("failed to cache record")
		}
	}
	progress(models.ProgressDone)

	metrics.RunsTotal.WithLabelValues("completed").Inc()
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	s.log.WithRecordID(record.ID).Infof("run completed in %s: %d events, %d subtitle tracks",
		time.Since(start).Round(time.Millisecond), len(record.Events()), len(record.Source.Subtitles))

	return result, nil
}

func (s *Service) sampleStage(ctx context.Context, videoPath string, intervalSeconds float64) ([]models.Frame, *models.VideoInfo, error) {
	span, ctx := tracing.StartSpan(ctx, "pipeline.sample")
	defer tracing.FinishSpan(span)

	stageStart := time.Now()
	frames, info, err := s.sampler.Sample(ctx, videoPath, intervalSeconds)
	metrics.StageDuration.WithLabelValues("sample").Observe(time.Since(stageStart).Seconds())
	if err != nil {
		tracing.LogError(span, err)
		return nil, nil, fmt.Errorf("failed to sample video: %w", err)
	}

	metrics.FramesSampledTotal.Add(float64(len(frames)))
	s.log.Infof("sampled %d frames at %.2f fps (interval %d)", len(frames), info.FPS, info.FrameInterval)
	return frames, info, nil
}

func (s *Service) analyzeStage(ctx context.Context, frames []models.Frame, progress func(float64)) []models.FrameAnalysis {
	span, ctx := tracing.StartSpan(ctx, "pipeline.analyze")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "frames.count", len(frames))

	stageStart := time.Now()
	analyses := s.visual.Analyze(ctx, frames, func(completed, total int) {
		s.log.LogFrameProgress("", completed, total)
		// Analysis spans the 0.25..0.75 stretch of the run.
		progress(models.ProgressSampled + (models.ProgressAnalyzed-models.ProgressSampled)*float64(completed)/float64(total))
	})
	metrics.StageDuration.WithLabelValues("analyze").Observe(time.Since(stageStart).Seconds())
	return analyses
}

func (s *Service) audioStage(ctx context.Context, videoPath string) *models.SubtitleSet {
	span, ctx := tracing.StartSpan(ctx, "pipeline.audio")
	defer tracing.FinishSpan(span)

	stageStart := time.Now()
	subtitles := s.audio.Annotate(ctx, videoPath)
	metrics.StageDuration.WithLabelValues("audio").Observe(time.Since(stageStart).Seconds())
	return subtitles
}

func (s *Service) aggregateStage(
	ctx context.Context,
	frames []models.Frame,
	analyses []models.FrameAnalysis,
	subtitles *models.SubtitleSet,
	info *models.VideoInfo,
	videoPath string,
) *models.AnnotationRecord {
	span, ctx := tracing.StartSpan(ctx, "pipeline.aggregate")
	defer tracing.FinishSpan(span)

	stageStart := time.Now()
	record := s.aggregator.Aggregate(frames, analyses, subtitles, info, videoPath)
	s.uploadThumbnails(ctx, record, frames)
	metrics.StageDuration.WithLabelValues("aggregate").Observe(time.Since(stageStart).Seconds())
	return record
}

// uploadThumbnails stores each frame image and fills the matching event's
// image URL. Upload failures leave the URL empty; the event itself is kept.
func (s *Service) uploadThumbnails(ctx context.Context, record *models.AnnotationRecord, frames []models.Frame) {
	if s.storage == nil {
		return
	}
	events := record.Source.Tracks.Caption.EventData
	for i := range frames {
		if i >= len(events) {
			break
		}
		url, err := s.storage.UploadThumbnail(ctx, record.ID, frames[i].FrameNumber, frames[i].ImageBytes)
		if err != nil {
			s.log.WithError(err).Warnf("failed to upload thumbnail for frame %d", frames[i].FrameNumber)
			continue
		}
		events[i].EventImageURL = url
	}
}

func analysisStageResult(analyses []models.FrameAnalysis) StageResult {
	sentinels := 0
	for i := range analyses {
		if analyses[i].IsSentinel() {
			sentinels++
		}
	}
	if sentinels == 0 {
		return StageResult{Name: "analyze", Status: "ok"}
	}
	return StageResult{
		Name:   "analyze",
		Status: "degraded",
		Error:  fmt.Sprintf("%d of %d frames failed analysis", sentinels, len(analyses)),
	}
}
