package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/blacx/annotator/internal/config"
	"github.com/blacx/annotator/pkg/models"
)

// Sampler decodes a video container and yields a decimated sequence of
// frames with timestamps. The sequence is finite and produced in increasing
// time order.
type Sampler struct {
	ffmpeg      *FFmpeg
	tempDir     string
	fallbackFPS float64
}

// NewSampler creates a sampler from configuration.
func NewSampler(cfg config.SamplerConfig) *Sampler {
	return &Sampler{
		ffmpeg:      NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath),
		tempDir:     cfg.TempDir,
		fallbackFPS: cfg.FallbackFPS,
	}
}

// FFmpeg exposes the underlying wrapper for audio extraction.
func (s *Sampler) FFmpeg() *FFmpeg {
	return s.ffmpeg
}

// Sample keeps one frame every intervalSeconds and returns the kept frames
// with the measured stream properties. A decode failure aborts sampling with
// a *DecodeError. The temporary frame directory is removed on every path.
func (s *Sampler) Sample(ctx context.Context, videoPath string, intervalSeconds float64) ([]models.Frame, *models.VideoInfo, error) {
	probed, err := s.ffmpeg.Probe(ctx, videoPath)
	if err != nil {
		return nil, nil, err
	}

	// One effective fps drives both decimation and timestamp math. The
	// fallback applies when the container reports a non-positive rate.
	fps := effectiveFPS(probed.FPS, s.fallbackFPS)
	interval := frameInterval(fps, intervalSeconds)

	info := &models.VideoInfo{
		FPS:             probed.FPS,
		TotalFrames:     probed.TotalFrames,
		DurationSeconds: probed.DurationSeconds,
		FrameInterval:   interval,
	}

	framesDir, err := os.MkdirTemp(s.tempDir, "frames-")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create frames directory: %w", err)
	}
	defer os.RemoveAll(framesDir)

	if err := s.ffmpeg.extractDecimated(ctx, videoPath, framesDir, interval); err != nil {
		return nil, nil, &DecodeError{Path: videoPath, Err: err}
	}

	frames, err := s.collectFrames(framesDir, interval, fps)
	if err != nil {
		return nil, nil, &DecodeError{Path: videoPath, Err: err}
	}

	return frames, info, nil
}

// collectFrames loads the extracted JPEG files in order and tags each with
// its source frame number and timestamp.
func (s *Sampler) collectFrames(framesDir string, interval int, fps float64) ([]models.Frame, error) {
	entries, err := os.ReadDir(framesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	frames := make([]models.Frame, 0, len(names))
	for _, name := range names {
		seq, err := strconv.Atoi(strings.TrimSuffix(name, ".jpg"))
		if err != nil {
			continue
		}

		data, err := os.ReadFile(filepath.Join(framesDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read frame %s: %w", name, err)
		}

		// ffmpeg numbers output files from 1
		frameNumber := (seq - 1) * interval
		frames = append(frames, models.Frame{
			FrameNumber:      frameNumber,
			TimestampSeconds: frameTimestamp(frameNumber, fps),
			ImageBytes:       data,
		})
	}

	return frames, nil
}

// effectiveFPS substitutes the fallback when the container reports a
// non-positive frame rate.
func effectiveFPS(reported, fallback float64) float64 {
	if reported > 0 {
		return reported
	}
	return fallback
}

// frameInterval is the decimation step: round(fps * intervalSeconds),
// never below 1.
func frameInterval(fps, intervalSeconds float64) int {
	interval := int(math.Round(fps * intervalSeconds))
	if interval < 1 {
		interval = 1
	}
	return interval
}

// frameTimestamp converts a frame index to seconds.
func frameTimestamp(frameNumber int, fps float64) float64 {
	return float64(frameNumber) / fps
}
