package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SwitchFunc forces a failover to the alternate source. Reports whether the
// switch succeeded.
type SwitchFunc func(ctx context.Context) bool

// Server exposes the health, status, metrics, and control endpoints.
type Server struct {
	monitor  *Monitor
	status   StatusSource
	switcher SwitchFunc
	server   *http.Server
}

// NewServer creates the HTTP server. The status source backs /status; the
// monitor grades /health; switcher, when non-nil, backs the operator
// switch-source endpoint.
func NewServer(monitor *Monitor, status StatusSource, switcher SwitchFunc, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor:  monitor,
		status:   status,
		switcher: switcher,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/control/switch-source", s.handleSwitchSource)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.Check()

	response := map[string]string{"status": string(report.Status)}
	w.Header().Set("Content-Type", "application/json")

	if report.Status == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.Check()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.status())
}

func (s *Server) handleSwitchSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.switcher == nil {
		http.Error(w, "source switching not available", http.StatusNotImplemented)
		return
	}

	ok := s.switcher(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusConflict)
	}
	json.NewEncoder(w).Encode(map[string]bool{"switched": ok})
}
