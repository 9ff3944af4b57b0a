package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Server runs the public API.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer wraps handler in an http.Server listening on port.
func NewServer(port int, handler http.Handler, readTimeout, writeTimeout time.Duration, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		logger: logger,
	}
}

// Start serves in the background. onFatal is called if the listener fails.
func (s *Server) Start(onFatal func(error)) {
	go func() {
		s.logger.Info("Starting API server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", zap.Error(err))
			if onFatal != nil {
				onFatal(err)
			}
		}
	}()
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	return s.httpServer.Shutdown(ctx)
}
