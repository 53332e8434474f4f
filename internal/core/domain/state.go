package domain

import "sync"

// AppState is the shared application state aggregate. It is mutated by the
// orchestrator and the recovery coordinator and read by status reporters, so
// every access goes through the mutex.
type AppState struct {
	mu               sync.RWMutex
	running          bool
	activeSource     string
	detectionEnabled bool
	throughput       float64
	lastError        string
}

func NewAppState() *AppState {
	return &AppState{activeSource: "none"}
}

func (s *AppState) SetRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *AppState) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *AppState) SetActiveSource(name string) {
	s.mu.Lock()
	s.activeSource = name
	s.mu.Unlock()
}

func (s *AppState) ActiveSource() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSource
}

func (s *AppState) SetDetectionEnabled(v bool) {
	s.mu.Lock()
	s.detectionEnabled = v
	s.mu.Unlock()
}

func (s *AppState) DetectionEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detectionEnabled
}

func (s *AppState) SetThroughput(fps float64) {
	s.mu.Lock()
	s.throughput = fps
	s.mu.Unlock()
}

func (s *AppState) Throughput() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.throughput
}

func (s *AppState) SetLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

func (s *AppState) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}
