package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg wraps ffmpeg/ffprobe invocations
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg creates a new FFmpeg instance
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// DecodeError means the input video could not be decoded or probed. Fatal
// for the run: no partial video can be meaningfully annotated.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode video %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// probeOutput mirrors the ffprobe JSON layout
type probeOutput struct {
	Format  formatInfo   `json:"format"`
	Streams []streamInfo `json:"streams"`
}

type formatInfo struct {
	Duration string `json:"duration"`
}

type streamInfo struct {
	CodecType    string `json:"codec_type"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	NbFrames     string `json:"nb_frames"`
}

// ProbeResult holds the stream properties the sampler needs.
type ProbeResult struct {
	FPS             float64
	TotalFrames     int
	DurationSeconds float64
}

// Probe extracts frame rate, frame count and duration from a video file.
func (f *FFmpeg) Probe(ctx context.Context, inputPath string) (*ProbeResult, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &DecodeError{Path: inputPath, Err: fmt.Errorf("ffprobe failed: %w, stderr: %s", err, stderr.String())}
	}

	var probed probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &probed); err != nil {
		return nil, &DecodeError{Path: inputPath, Err: fmt.Errorf("failed to parse ffprobe output: %w", err)}
	}

	result := &ProbeResult{}
	if duration, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
		result.DurationSeconds = duration
	}

	for _, stream := range probed.Streams {
		if stream.CodecType != "video" {
			continue
		}
		result.FPS = parseFrameRate(stream.AvgFrameRate)
		if result.FPS <= 0 {
			result.FPS = parseFrameRate(stream.RFrameRate)
		}
		if frames, err := strconv.Atoi(stream.NbFrames); err == nil {
			result.TotalFrames = frames
		}
		break
	}

	// Some containers omit nb_frames; derive it from duration.
	if result.TotalFrames == 0 && result.FPS > 0 {
		result.TotalFrames = int(result.DurationSeconds * result.FPS)
	}

	return result, nil
}

// ExtractAudio extracts the audio track to a mono 16 kHz wav file suitable
// for transcription.
func (f *FFmpeg) ExtractAudio(ctx context.Context, inputPath, audioOut string) error {
	args := []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		audioOut,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg audio extraction failed: %w, stderr: %s", err, truncate(stderr.String(), 512))
	}

	return nil
}

// extractDecimated writes every frameInterval-th frame of the input as
// numbered JPEG files under outDir.
func (f *FFmpeg) extractDecimated(ctx context.Context, inputPath, outDir string, frameInterval int) error {
	pattern := outDir + "/%06d.jpg"
	args := []string{
		"-y",
		"-i", inputPath,
		"-vf", fmt.Sprintf("select=not(mod(n\\,%d))", frameInterval),
		"-vsync", "0",
		"-q:v", "2",
		pattern,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg frame extraction failed: %w, stderr: %s", err, truncate(stderr.String(), 512))
	}

	return nil
}

func parseFrameRate(rate string) float64 {
	parts := strings.Split(rate, "/")
	if len(parts) == 2 {
		num, _ := strconv.ParseFloat(parts[0], 64)
		den, _ := strconv.ParseFloat(parts[1], 64)
		if den != 0 {
			return num / den
		}
		return 0
	}
	value, _ := strconv.ParseFloat(rate, 64)
	return value
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
