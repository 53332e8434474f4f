package display

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tdnguyen/vigil/internal/core/domain"
)

// LogSink is a headless display: it summarizes rendered frames to the log at
// a fixed cadence instead of drawing windows. Used for servers and tests.
type LogSink struct {
	mu       sync.Mutex
	frames   uint64
	lastLog  time.Time
	logEvery time.Duration
	closed   bool
	log      *slog.Logger
}

// NewLogSink creates a sink that logs a summary every interval.
func NewLogSink(interval time.Duration) *LogSink {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &LogSink{
		logEvery: interval,
		log:      slog.Default().With("component", "display"),
	}
}

func (s *LogSink) Render(ctx context.Context, frame *domain.Frame, detections []domain.Detection) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, nil
	}
	s.frames++
	if now := time.Now(); now.Sub(s.lastLog) >= s.logEvery {
		s.lastLog = now
		s.log.Info("Rendered frames",
			"total", s.frames,
			"last_frame", frame.ID,
			"detections", len(detections))
	}
	return true, nil
}

// Close makes the next Render report a user-initiated close.
func (s *LogSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *LogSink) Cleanup() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
