package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesProcessed tracks fully processed frames
	FramesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_frames_processed_total",
			Help: "Total number of frames fully processed",
		},
	)

	// FramesSkipped tracks frames dropped by the governor's skip decision
	FramesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_frames_skipped_total",
			Help: "Total number of frames skipped under load shedding",
		},
	)

	// PipelineErrors tracks reported failures per kind
	PipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_pipeline_errors_total",
			Help: "Total number of reported pipeline failures",
		},
		[]string{"kind"},
	)

	// RecoveryAttempts tracks recovery escalations per chosen strategy
	RecoveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_recovery_attempts_total",
			Help: "Total number of recovery attempts",
		},
		[]string{"strategy", "outcome"},
	)

	// Throughput tracks the governor's current FPS estimate
	Throughput = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_throughput_fps",
			Help: "Current pipeline throughput in frames per second",
		},
	)

	// SkipRatio tracks the governor's current skip ratio
	SkipRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_skip_ratio",
			Help: "Current frame skip ratio (process 1 of every N)",
		},
	)

	// QualityLevel tracks the governor's current quality level
	QualityLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_quality_level",
			Help: "Current detection quality level (downscale factor)",
		},
	)

	// MemoryUsage tracks process resident memory in MB
	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_memory_mb",
			Help: "Process resident memory in megabytes",
		},
	)

	// DetectionLatency tracks per-frame detection duration
	DetectionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_detection_latency_seconds",
			Help:    "Object detection latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RenderLatency tracks per-frame render duration
	RenderLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_render_latency_seconds",
			Help:    "Frame render latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
