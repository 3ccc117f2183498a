// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"itmo-qa/internal/common/config"
	"itmo-qa/internal/common/logger"
)

// Server owns the public HTTP listener serving the prediction API.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

func NewServer(cfg config.ServerConfig, handler *Handler, middleware *LoggingMiddleware, log logger.Logger) *Server {
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      middleware.Wrap(mux),
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
		},
		logger: log,
	}
}

func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
