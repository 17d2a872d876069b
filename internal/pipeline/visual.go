package pipeline

import (
	"context"
	"sync"

	"github.com/blacx/annotator/internal/cache"
	"github.com/blacx/annotator/internal/logging"
	"github.com/blacx/annotator/internal/metrics"
	"github.com/blacx/annotator/internal/services"
	"github.com/blacx/annotator/pkg/models"
)

// ProgressFunc receives the number of frames finished so far.
type ProgressFunc func(completed, total int)

// VisualAnalyzer runs the vision service over every sampled frame.
// A frame that fails analysis never aborts the batch; its slot is
// filled with a sentinel description instead.
type VisualAnalyzer struct {
	vision services.VisionService
	cache  *cache.Cache
	fanOut int
	log    *logging.Logger
}

// NewVisualAnalyzer creates an analyzer. cache may be nil to disable
// result caching. fanOut values below 1 are treated as 1.
func NewVisualAnalyzer(vision services.VisionService, c *cache.Cache, fanOut int, log *logging.Logger) *VisualAnalyzer {
	if fanOut < 1 {
		fanOut = 1
	}
	return &VisualAnalyzer{
		vision: vision,
		cache:  c,
		fanOut: fanOut,
		log:    log,
	}
}

// Analyze describes every frame and returns one analysis per frame in
// the same order as the input. Frames are dispatched to a bounded pool
// of workers; results are written back by index so ordering never
// depends on completion order.
func (v *VisualAnalyzer) Analyze(ctx context.Context, frames []models.Frame, onProgress ProgressFunc) []models.FrameAnalysis {
	results := make([]models.FrameAnalysis, len(frames))
	if len(frames) == 0 {
		return results
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	sem := make(chan struct{}, v.fanOut)

	for i := range frames {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = v.analyzeFrame(ctx, &frames[idx])

			// Delivered under the lock so completion counts reach the
			// callback strictly in order even with several workers.
			mu.Lock()
			completed++
			if onProgress != nil {
				onProgress(completed, len(frames))
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	return results
}

func (v *VisualAnalyzer) analyzeFrame(ctx context.Context, frame *models.Frame) models.FrameAnalysis {
	if v.cache != nil {
		if analysis, ok := v.cache.GetFrameAnalysis(ctx, cache.FrameKey(frame.ImageBytes)); ok {
			metrics.FramesAnalyzedTotal.WithLabelValues("cached").Inc()
			return analysis
		}
	}

	analysis, err := v.vision.Describe(ctx, frame.ImageBytes, frame.TimestampSeconds)
	if err != nil {
		aerr := &AnalysisError{
			FrameNumber: frame.FrameNumber,
			Timestamp:   frame.TimestampSeconds,
			Err:         err,
		}
		v.log.WithError(aerr).Warnf("frame %d analysis failed, substituting sentinel", frame.FrameNumber)
		metrics.FramesAnalyzedTotal.WithLabelValues("sentinel").Inc()
		return models.SentinelAnalysis(err.Error())
	}

	metrics.FramesAnalyzedTotal.WithLabelValues("ok").Inc()
	if v.cache != nil {
		v.cache.SetFrameAnalysis(ctx, cache.FrameKey(frame.ImageBytes), analysis)
	}
	return analysis
}
