package models

// Frame is one sampled video frame. Immutable once produced by the sampler.
type Frame struct {
	FrameNumber      int     `json:"frame_number"`
	TimestampSeconds float64 `json:"timestamp_seconds"`
	ImageBytes       []byte  `json:"-"`
}

// FrameAnalysis is the structured result of analyzing a single frame, keyed
// 1:1 to a Frame by timestamp.
type FrameAnalysis struct {
	Description     string   `json:"description"`
	ObjectsDetected []string `json:"objects_detected"`
	SceneType       string   `json:"scene_type"`
}

// SceneTypeError marks the sentinel analysis substituted when the vision
// call for a frame fails.
const SceneTypeError = "error"

// SentinelAnalysis builds the placeholder analysis for a failed frame. The
// failure becomes data; the run continues.
func SentinelAnalysis(reason string) FrameAnalysis {
	return FrameAnalysis{
		Description:     "Error analyzing frame: " + reason,
		ObjectsDetected: []string{},
		SceneType:       SceneTypeError,
	}
}

// IsSentinel reports whether the analysis is the failure placeholder.
func (a FrameAnalysis) IsSentinel() bool {
	return a.SceneType == SceneTypeError
}

// VideoInfo holds the stream properties measured while sampling.
type VideoInfo struct {
	FPS             float64 `json:"fps"`
	TotalFrames     int     `json:"total_frames"`
	DurationSeconds float64 `json:"duration_seconds"`
	FrameInterval   int     `json:"frame_interval"`
}
