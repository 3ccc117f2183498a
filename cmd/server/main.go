// cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"itmo-qa/internal/answer"
	"itmo-qa/internal/common/config"
	"itmo-qa/internal/common/logger"
	"itmo-qa/internal/common/observability"
	"itmo-qa/internal/search"
	"itmo-qa/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrapLog := logger.New("info", "console")
		bootstrapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting prediction service...",
		zap.String("name", cfg.App.Name),
		zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	resolver := answer.NewResolver(
		&answer.Config{
			BaseURL: cfg.APIs.LLM.BaseURL,
			APIKey:  cfg.APIs.LLM.APIKey,
			Model:   cfg.APIs.LLM.Model,
			Timeout: time.Duration(cfg.APIs.LLM.Timeout) * time.Millisecond,
		},
		log,
	)

	searcher := search.NewSearcher(
		&search.Config{
			BaseURL:    cfg.APIs.WebSearch.BaseURL,
			APIKey:     cfg.APIs.WebSearch.APIKey,
			EngineID:   cfg.APIs.WebSearch.EngineID,
			Timeout:    time.Duration(cfg.APIs.WebSearch.Timeout) * time.Millisecond,
			MaxResults: cfg.APIs.WebSearch.MaxResults,
		},
		log,
	)

	handler := server.NewHandler(resolver, searcher, log)
	middleware := server.NewLoggingMiddleware(log, obs)
	srv := server.NewServer(cfg.Server, handler, middleware, log)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.Server.OpsAddress))
		if err := http.ListenAndServe(cfg.Server.OpsAddress, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
