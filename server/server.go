package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"realestate-agent/utils"
)

// Server is the HTTP listener with graceful shutdown.
type Server struct {
	srv    *http.Server
	logger *utils.Logger
}

// New builds a Server on port with h mounted. Searches may take as long as
// a scrape plus a model call, so the write timeout is generous.
func New(port string, h *Handler, logger *utils.Logger) *Server {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("[server] Listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.logger.Info("[server] Shutting down…")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
