// internal/server/middleware.go
package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"itmo-qa/internal/common/logger"
	"itmo-qa/internal/common/metrics"
	"itmo-qa/internal/common/observability"
)

// responseRecorder captures the status code and a copy of the body while
// writing through to the underlying ResponseWriter, so the response the
// client sees is untouched.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Record implicit 200 responses when handlers write without calling
// WriteHeader.
func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

// LoggingMiddleware logs every request/response pair with a per-request
// id and records request metrics.
type LoggingMiddleware struct {
	logger logger.Logger
	obs    *observability.Observability
}

func NewLoggingMiddleware(log logger.Logger, obs *observability.Observability) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: log.With(map[string]interface{}{
			"component": "http-middleware",
		}),
		obs: obs,
	}
}

func (m *LoggingMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()

		// Buffer the request body so it can be logged and still decoded
		// downstream.
		var requestBody []byte
		var readErr error
		if r.Body != nil {
			requestBody, readErr = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(requestBody))
		}

		log := m.logger.With(map[string]interface{}{
			"requestId": requestID,
		})
		inboundFields := map[string]interface{}{
			"method": r.Method,
			"url":    r.URL.String(),
			"body":   string(requestBody),
		}
		if readErr != nil {
			inboundFields["readError"] = readErr.Error()
		}
		log.Info("request received", inboundFields)

		w.Header().Set("X-Request-ID", requestID)
		rec := &responseRecorder{ResponseWriter: w}

		metrics.RequestsInFlight.Inc()
		next.ServeHTTP(rec, r)
		metrics.RequestsInFlight.Dec()

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		log.Info("request completed", map[string]interface{}{
			"method":   r.Method,
			"url":      r.URL.String(),
			"status":   status,
			"body":     rec.body.String(),
			"duration": fmt.Sprintf("%.3fs", duration.Seconds()),
		})

		statusLabel := strconv.Itoa(status)
		metrics.RequestsTotal.WithLabelValues(statusLabel).Inc()
		metrics.RequestDuration.WithLabelValues(statusLabel).Observe(duration.Seconds())
		if m.obs != nil {
			m.obs.RecordRequestProcessed(r.Context(), statusLabel)
			m.obs.RecordRequestDuration(r.Context(), duration, statusLabel)
		}
	})
}
