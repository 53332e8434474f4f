// Package reporter classifies pipeline failures, counts them, and rate-limits
// their logging under per-kind exponential backoff so a persistently failing
// component cannot flood the logs.
package reporter

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tdnguyen/vigil/internal/pipeline/metrics"
)

// ErrorStats is the per-kind mutable record behind the rate limiter.
type ErrorStats struct {
	Count           uint64
	LastLoggedAt    time.Time
	BackoffInterval time.Duration
}

// Config holds the backoff bounds for error logging.
type Config struct {
	BaseInterval time.Duration // first repeat of a kind is logged after this long
	MaxInterval  time.Duration // backoff cap
}

// DefaultConfig returns the standard 1s..60s backoff window.
func DefaultConfig() Config {
	return Config{
		BaseInterval: time.Second,
		MaxInterval:  60 * time.Second,
	}
}

// Reporter counts failures per kind and decides whether to emit a log line
// now or suppress it. Suppressed reports still increment counters.
type Reporter struct {
	mu    sync.Mutex
	cfg   Config
	stats [kindCount]ErrorStats
	log   *slog.Logger
	now   func() time.Time
}

// New creates a reporter with every kind initialized to the base interval.
func New(cfg Config) *Reporter {
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = time.Second
	}
	if cfg.MaxInterval < cfg.BaseInterval {
		cfg.MaxInterval = 60 * time.Second
	}
	r := &Reporter{
		cfg: cfg,
		log: slog.Default().With("component", "reporter"),
		now: time.Now,
	}
	for k := ErrorKind(0); k < kindCount; k++ {
		r.stats[k].BackoffInterval = cfg.BaseInterval
	}
	return r
}

// Report increments the counter for kind and logs the message unless it is
// suppressed by the current backoff interval. On a logged event the interval
// doubles, capped at the configured maximum.
func (r *Reporter) Report(kind ErrorKind, message string) {
	if kind < 0 || kind >= kindCount {
		kind = Unknown
	}

	r.mu.Lock()
	st := &r.stats[kind]
	st.Count++
	now := r.now()

	emit := now.Sub(st.LastLoggedAt) >= st.BackoffInterval
	var suppressed uint64
	if emit {
		st.LastLoggedAt = now
		next := st.BackoffInterval * 2
		if next > r.cfg.MaxInterval {
			next = r.cfg.MaxInterval
		}
		st.BackoffInterval = next
		suppressed = st.Count
	}
	r.mu.Unlock()

	metrics.PipelineErrors.WithLabelValues(kind.String()).Inc()

	if !emit {
		return
	}

	// Connection and model failures are actionable, everything else is
	// expected degraded-operation noise.
	switch kind {
	case SourceConnectionFailed, ModelLoadFailed:
		r.log.Error(message, "kind", kind.String(), "count", suppressed)
	default:
		r.log.Warn(message, "kind", kind.String(), "count", suppressed)
	}
	if hint := Hint(kind); hint != "" {
		r.log.Info("Troubleshooting: " + hint)
	}
}

// ResetBackoff restores every kind to the base interval and clears the
// last-logged timestamps, so the next failure after a healthy period logs
// immediately instead of inheriting stale backoff.
func (r *Reporter) ResetBackoff() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.stats {
		r.stats[k].BackoffInterval = r.cfg.BaseInterval
		r.stats[k].LastLoggedAt = time.Time{}
	}
}

// Count returns the total number of reports for one kind.
func (r *Reporter) Count(kind ErrorKind) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind < 0 || kind >= kindCount {
		return 0
	}
	return r.stats[kind].Count
}

// Counts returns a snapshot of all error counts keyed by kind name.
func (r *Reporter) Counts() map[string]uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]uint64, kindCount)
	for k := ErrorKind(0); k < kindCount; k++ {
		out[k.String()] = r.stats[k].Count
	}
	return out
}

// Stats returns a copy of the stats record for one kind.
func (r *Reporter) Stats(kind ErrorKind) ErrorStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind < 0 || kind >= kindCount {
		return ErrorStats{}
	}
	return r.stats[kind]
}

// Dominant returns the kind with the highest count among the given kinds.
// Ties are broken by the fixed priority order of Kinds(). Returns false when
// every considered count is zero.
func (r *Reporter) Dominant(kinds ...ErrorKind) (ErrorKind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	considered := kinds
	if len(considered) == 0 {
		considered = Kinds()
	}

	best := Unknown
	var bestCount uint64
	for _, k := range Kinds() {
		for _, want := range considered {
			if k != want {
				continue
			}
			if c := r.stats[k].Count; c > bestCount {
				best = k
				bestCount = c
			}
		}
	}
	if bestCount == 0 {
		return Unknown, false
	}
	return best, true
}
