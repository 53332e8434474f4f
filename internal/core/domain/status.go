package domain

// Status is a point-in-time snapshot of the controller, served over HTTP,
// published to Redis, and printed by the CLI.
type Status struct {
	Running           bool              `json:"running"`
	ActiveSource      string            `json:"active_source"`
	DetectionEnabled  bool              `json:"detection_enabled"`
	Throughput        float64           `json:"throughput_fps"`
	LastError         string            `json:"last_error,omitempty"`
	ConsecutiveErrors int               `json:"consecutive_errors"`
	RecoveryAttempts  int               `json:"recovery_attempts"`
	RecoveryState     string            `json:"recovery_state"`
	ErrorCounts       map[string]uint64 `json:"error_counts"`
	SkipRatio         uint              `json:"skip_ratio"`
	QualityLevel      float64           `json:"quality_level"`
	MemoryMB          float64           `json:"memory_mb"`
	Suggestions       []string          `json:"suggestions,omitempty"`
}
