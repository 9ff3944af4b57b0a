package healthcheck

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the ops listener: liveness, readiness and metrics.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *zap.Logger
	checks     map[string]Pinger
}

// HealthResponse is the response structure for health check endpoints
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// NewServer creates the ops server. checks are pinged by /ready.
func NewServer(port int, logger *zap.Logger, checks map[string]Pinger) *Server {
	mux := http.NewServeMux()

	server := &Server{
		httpServer: &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		mux:    mux,
		logger: logger,
		checks: checks,
	}

	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/ready", server.handleReady)

	return server
}

// RegisterMetricsHandler adds the /metrics endpoint handler.
// Should only be called if metrics are enabled.
func (s *Server) RegisterMetricsHandler(handler http.Handler) {
	s.logger.Info("Registering /metrics endpoint")
	s.mux.Handle("/metrics", handler)
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins the HTTP server
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting ops server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Ops server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping ops server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles the /health endpoint for liveness probes
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "UP",
		Version: "1.0.0",
	}

	utils.WriteJSONResponse(w, http.StatusOK, resp)
}

// handleReady pings every dependency and answers 503 if any is down.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{
		Status: "READY",
		Details: map[string]string{
			"timestamp": utils.FormatISO8601(utils.Now()),
		},
	}
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			s.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			resp.Details[name] = "DOWN"
			resp.Status = "NOT_READY"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Details[name] = "UP"
	}

	utils.WriteJSONResponse(w, status, resp)
}
