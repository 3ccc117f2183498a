// internal/server/middleware_test.go
package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"itmo-qa/internal/common/logger"
	"itmo-qa/internal/common/metrics"
)

func TestLoggingMiddleware_RestoresRequestBody(t *testing.T) {
	var downstreamBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		downstreamBody = string(body)
		w.Write([]byte("ok"))
	})

	m := NewLoggingMiddleware(logger.NewTestLogger(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/request", strings.NewReader(`{"id":1,"query":"test"}`))
	w := httptest.NewRecorder()

	m.Wrap(next).ServeHTTP(w, req)

	assert.Equal(t, `{"id":1,"query":"test"}`, downstreamBody)
	assert.Equal(t, "ok", w.Body.String())
}

func TestLoggingMiddleware_SetsRequestID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	m := NewLoggingMiddleware(logger.NewTestLogger(t), nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	m.Wrap(next).ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLoggingMiddleware_PassesStatusAndBodyThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"bad"}`))
	})

	m := NewLoggingMiddleware(logger.NewTestLogger(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/request", strings.NewReader("{}"))
	w := httptest.NewRecorder()

	m.Wrap(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `{"detail":"bad"}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestLoggingMiddleware_ImplicitOKStatus(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("no explicit WriteHeader"))
	})

	m := NewLoggingMiddleware(logger.NewTestLogger(t), nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	m.Wrap(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoggingMiddleware_RecordsRequestMetrics(t *testing.T) {
	okBefore := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("200"))
	badBefore := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("400"))

	m := NewLoggingMiddleware(logger.NewTestLogger(t), nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	bad := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	m.Wrap(ok).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	m.Wrap(bad).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/request", strings.NewReader("{}")))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("200")))
	assert.Equal(t, badBefore+1, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("400")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.RequestsInFlight))
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("read failure")
}

func TestLoggingMiddleware_LogsBodyReadError(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	m := NewLoggingMiddleware(logger.NewZapAdapter(zap.New(core)), nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/api/request", nil)
	req.Body = io.NopCloser(failingReader{})
	w := httptest.NewRecorder()

	m.Wrap(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	entries := observed.FilterMessage("request received").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "read failure", entries[0].ContextMap()["readError"])
}

func TestResponseRecorder_CapturesBodyCopy(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &responseRecorder{ResponseWriter: w}

	rec.WriteHeader(http.StatusOK)
	rec.Write([]byte("part one "))
	rec.Write([]byte("part two"))

	assert.Equal(t, "part one part two", rec.body.String())
	assert.Equal(t, "part one part two", w.Body.String())
	assert.Equal(t, http.StatusOK, rec.status)
}
