// Package recovery owns the escalation policy: given accumulated error
// counts and time since the last successful frame, it decides which recovery
// strategy to run (source failover, component restart) and executes it
// against the external collaborators.
package recovery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/tdnguyen/vigil/internal/pipeline/metrics"
	"github.com/tdnguyen/vigil/internal/pipeline/reporter"
)

// Actions is the narrow surface the coordinator uses to act on the external
// collaborators. Implemented by the orchestrator.
type Actions interface {
	// SwitchToAlternate fails over to the alternate source. Returns false
	// when no alternate is configured or the switch did not take.
	SwitchToAlternate(ctx context.Context) bool

	// RestartDetector tears down and recreates the detector.
	RestartDetector(ctx context.Context) bool

	// RestartDisplay tears down and recreates the display sink.
	RestartDisplay(ctx context.Context) bool
}

// Config holds escalation thresholds.
type Config struct {
	MaxConsecutiveErrors int
	StallWindow          time.Duration
	MaxAttempts          int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MaxConsecutiveErrors: 5,
		StallWindow:          30 * time.Second,
		MaxAttempts:          3,
	}
}

var errSwitchFailed = errors.New("source switch did not take")

// Coordinator tracks the recovery state machine and runs the strategy ladder.
// All methods are called from the orchestrator's cycle; recovery itself is
// synchronous and blocking, which is acceptable because it is rare and
// bounded by the collaborators' own timeouts.
type Coordinator struct {
	cfg     Config
	rep     *reporter.Reporter
	actions Actions
	log     *slog.Logger

	mu          sync.Mutex
	state       State
	consecutive int
	attempts    int
	lastSuccess time.Time

	now func() time.Time
}

// NewCoordinator creates a coordinator in the Healthy state.
func NewCoordinator(cfg Config, rep *reporter.Reporter, actions Actions) *Coordinator {
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = 5
	}
	if cfg.StallWindow <= 0 {
		cfg.StallWindow = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	c := &Coordinator{
		cfg:     cfg,
		rep:     rep,
		actions: actions,
		log:     slog.Default().With("component", "recovery"),
		now:     time.Now,
	}
	c.lastSuccess = c.now()
	return c
}

// NoteFailure records one failed frame cycle.
func (c *Coordinator) NoteFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutive++
	if c.state == Healthy {
		c.state = Degraded
	}
}

// NoteSuccess records one fully successful frame cycle. The consecutive
// counter resets and the ladder drops back to Healthy unless it already
// reached the terminal Failed state.
func (c *Coordinator) NoteSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutive = 0
	c.lastSuccess = c.now()
	if c.state != Failed {
		c.state = Healthy
	}
}

// ShouldAttempt reports whether either escalation trigger has fired: the
// consecutive-error threshold, or the stall window elapsing since the last
// successful frame regardless of the counter.
func (c *Coordinator) ShouldAttempt() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Failed {
		return false
	}
	if c.consecutive >= c.cfg.MaxConsecutiveErrors {
		return true
	}
	return c.now().Sub(c.lastSuccess) > c.cfg.StallWindow
}

// AttemptRecovery runs the strategy ladder once. Returns false immediately,
// with no strategy invoked, once attempts exceed the configured maximum;
// the orchestrator treats that as fatal.
func (c *Coordinator) AttemptRecovery(ctx context.Context) bool {
	c.mu.Lock()
	c.attempts++
	if c.attempts > c.cfg.MaxAttempts {
		c.state = Failed
		attempts := c.attempts
		c.mu.Unlock()
		c.log.Error("Maximum recovery attempts exceeded",
			"attempts", attempts-1, "max", c.cfg.MaxAttempts)
		metrics.RecoveryAttempts.WithLabelValues("none", "exhausted").Inc()
		return false
	}
	c.state = Recovering
	attempt := c.attempts
	c.mu.Unlock()

	attemptID := uuid.New().String()
	c.log.Info("Attempting recovery",
		"attempt_id", attemptID,
		"attempt", attempt,
		"max", c.cfg.MaxAttempts)

	if c.tryFailover(ctx, attemptID) {
		c.recovered()
		metrics.RecoveryAttempts.WithLabelValues("failover", "success").Inc()
		return true
	}

	if c.tryComponentRestart(ctx, attemptID) {
		c.recovered()
		metrics.RecoveryAttempts.WithLabelValues("restart", "success").Inc()
		return true
	}

	c.mu.Lock()
	c.state = Degraded
	c.mu.Unlock()
	c.log.Warn("Recovery attempt failed", "attempt_id", attemptID)
	metrics.RecoveryAttempts.WithLabelValues("none", "failure").Inc()
	return false
}

func (c *Coordinator) recovered() {
	c.mu.Lock()
	c.consecutive = 0
	c.state = Healthy
	c.mu.Unlock()
	c.log.Info("Recovery successful")
}

// tryFailover runs when connection-class errors dominate the recent counts.
// The switch is retried with bounded exponential backoff because a flaky
// source often takes a moment to accept a new connection.
func (c *Coordinator) tryFailover(ctx context.Context, attemptID string) bool {
	dominant, ok := c.rep.Dominant()
	if !ok {
		return false
	}
	if dominant != reporter.SourceConnectionFailed && dominant != reporter.FrameProcessingFailed {
		return false
	}

	c.log.Info("Trying source failover",
		"attempt_id", attemptID, "dominant_kind", dominant.String())

	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if c.actions.SwitchToAlternate(ctx) {
			return nil
		}
		return retry.RetryableError(errSwitchFailed)
	})
	return err == nil
}

// tryComponentRestart recreates collaborators that have reported failures.
// Always attempted as the fallback: a restart is cheap and additive.
func (c *Coordinator) tryComponentRestart(ctx context.Context, attemptID string) bool {
	restarted := false

	if c.rep.Count(reporter.ModelLoadFailed) > 0 {
		c.log.Info("Restarting detector", "attempt_id", attemptID)
		if c.actions.RestartDetector(ctx) {
			restarted = true
		} else {
			c.log.Warn("Detector restart failed", "attempt_id", attemptID)
		}
	}

	if c.rep.Count(reporter.RenderFailed) > 0 {
		c.log.Info("Restarting display sink", "attempt_id", attemptID)
		if c.actions.RestartDisplay(ctx) {
			restarted = true
		} else {
			c.log.Warn("Display restart failed", "attempt_id", attemptID)
		}
	}

	return restarted
}

// State returns the current ladder position.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConsecutiveErrors returns the current consecutive failed-cycle count.
func (c *Coordinator) ConsecutiveErrors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consecutive
}

// Attempts returns how many recovery attempts have been made.
func (c *Coordinator) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}
