package models

import "time"

// AnnotationJob represents one queued annotation run.
type AnnotationJob struct {
	ID              string     `json:"id"`
	VideoPath       string     `json:"video_path"`
	IntervalSeconds float64    `json:"interval_seconds"`
	Status          string     `json:"status"`
	Progress        float64    `json:"progress"`
	ErrorMsg        string     `json:"error_msg,omitempty"`
	RecordID        string     `json:"record_id,omitempty"`
	WorkerID        string     `json:"worker_id,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// JobStatus constants
const (
	JobStatusPending    = "pending"
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Progress milestones of a run, mirrored in job status updates.
const (
	ProgressSampled  = 0.25
	ProgressAnalyzed = 0.75
	ProgressAudio    = 0.90
	ProgressDone     = 1.0
)
