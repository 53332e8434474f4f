package health

import (
	"fmt"
	"sync"
	"time"

	"github.com/tdnguyen/vigil/internal/core/domain"
)

// StatusSource supplies the controller snapshot the monitor evaluates.
type StatusSource func() domain.Status

// Monitor derives a health grade from the controller status. Checks are
// rate limited so a polling load balancer cannot make the orchestrator
// assemble snapshots more than once per interval.
type Monitor struct {
	source    StatusSource
	targetFPS float64
	maxMemMB  float64

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport Report

	now func() time.Time
}

// NewMonitor creates a monitor over the given status source. targetFPS and
// maxMemoryMB bound the degraded/critical thresholds; zero disables the
// corresponding check.
func NewMonitor(source StatusSource, targetFPS, maxMemoryMB float64) *Monitor {
	return &Monitor{
		source:    source,
		targetFPS: targetFPS,
		maxMemMB:  maxMemoryMB,
		now:       time.Now,
	}
}

// Check evaluates the current controller status. Results are cached for 2s.
func (m *Monitor) Check() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.now().Sub(m.lastCheck) < 2*time.Second && m.lastReport.Status != "" {
		return m.lastReport
	}

	st := m.source()
	report := Report{
		Status:            StatusHealthy,
		Running:           st.Running,
		ActiveSource:      st.ActiveSource,
		ThroughputFPS:     st.Throughput,
		ConsecutiveErrors: st.ConsecutiveErrors,
		RecoveryState:     st.RecoveryState,
		MemoryMB:          st.MemoryMB,
	}

	degrade := func(reason string) {
		if report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
		report.Reasons = append(report.Reasons, reason)
	}

	switch st.RecoveryState {
	case "failed":
		report.Status = StatusCritical
		report.Reasons = append(report.Reasons, "recovery attempts exhausted")
	case "recovering":
		degrade("recovery in progress")
	case "degraded":
		degrade("consecutive pipeline errors")
	}

	if !st.Running {
		report.Status = StatusCritical
		report.Reasons = append(report.Reasons, "pipeline not running")
	}
	if m.targetFPS > 0 && st.Running && st.Throughput > 0 && st.Throughput < m.targetFPS*0.5 {
		degrade(fmt.Sprintf("throughput %.1f fps below half of target %.1f", st.Throughput, m.targetFPS))
	}
	if m.maxMemMB > 0 && st.MemoryMB > m.maxMemMB {
		degrade(fmt.Sprintf("memory %.0f MB above ceiling %.0f MB", st.MemoryMB, m.maxMemMB))
	}

	m.lastCheck = m.now()
	m.lastReport = report
	return report
}
