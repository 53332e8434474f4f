// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the controller.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report is the payload served on /health/detailed.
type Report struct {
	Status            SystemStatus `json:"status"`
	Running           bool         `json:"running"`
	ActiveSource      string       `json:"active_source"`
	ThroughputFPS     float64      `json:"throughput_fps"`
	ConsecutiveErrors int          `json:"consecutive_errors"`
	RecoveryState     string       `json:"recovery_state"`
	MemoryMB          float64      `json:"memory_mb"`
	Reasons           []string     `json:"reasons,omitempty"`
}
