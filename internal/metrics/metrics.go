package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "annotator_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Pipeline Metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_runs_total",
			Help: "Total number of annotation runs",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "annotator_run_duration_seconds",
			Help:    "End-to-end annotation run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "annotator_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage"},
	)

	RunProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "annotator_run_progress",
			Help: "Progress of the current annotation run (0 to 1)",
		},
		[]string{"job_id"},
	)

	// Frame Analysis Metrics
	FramesSampledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "annotator_frames_sampled_total",
			Help: "Total number of frames sampled from videos",
		},
	)

	FramesAnalyzedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_frames_analyzed_total",
			Help: "Total number of frames sent to the vision service",
		},
		[]string{"result"}, // ok, sentinel, cached
	)

	// Audio Metrics
	TranscriptSegmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "annotator_transcript_segments_total",
			Help: "Total number of transcript segments produced",
		},
	)

	TranslationFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_translation_fallbacks_total",
			Help: "Segments that kept the source text after a failed translation",
		},
		[]string{"language"},
	)

	AudioStageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_audio_stage_failures_total",
			Help: "Audio pipeline failures by stage",
		},
		[]string{"stage"},
	)

	// Query Metrics
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_queries_total",
			Help: "Total number of record queries",
		},
		[]string{"status"},
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "annotator_query_duration_seconds",
			Help:    "Assistant query latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// Queue Metrics
	JobsQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "annotator_jobs_queue_depth",
			Help: "Number of jobs waiting in queue",
		},
	)

	// Export Metrics
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_exports_total",
			Help: "Total number of record exports",
		},
		[]string{"format", "status"},
	)
)
