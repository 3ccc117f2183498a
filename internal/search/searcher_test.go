// internal/search/searcher_test.go
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"itmo-qa/internal/common/errors"
	"itmo-qa/internal/common/logger"
	"itmo-qa/internal/common/metrics"
)

func createTestConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:8080/search",
		APIKey:     "test-api-key",
		EngineID:   "test-engine-id",
		Timeout:    3 * time.Second,
		MaxResults: 3,
	}
}

func createSearchAPIResponse(items []map[string]string) string {
	response := map[string]interface{}{"items": items}
	data, _ := json.Marshal(response)
	return string(data)
}

func TestSearcher_Search_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))
		assert.Equal(t, "test-engine-id", r.URL.Query().Get("cx"))
		assert.Equal(t, "Когда основан ИТМО?", r.URL.Query().Get("q"))

		response := createSearchAPIResponse([]map[string]string{
			{"title": "История ИТМО", "link": "https://itmo.ru/history"},
			{"title": "ИТМО — Википедия", "link": "https://ru.wikipedia.org/wiki/ИТМО"},
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(response))
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	searcher := NewSearcher(config, logger.NewTestLogger(t))

	successBefore := testutil.ToFloat64(metrics.UpstreamCalls.WithLabelValues("web_search", "success"))

	result, err := searcher.Search(context.Background(), "Когда основан ИТМО?")

	assert.NoError(t, err)
	assert.Equal(t, successBefore+1, testutil.ToFloat64(metrics.UpstreamCalls.WithLabelValues("web_search", "success")))
	assert.NotNil(t, result)
	assert.Equal(t, []string{"https://itmo.ru/history", "https://ru.wikipedia.org/wiki/ИТМО"}, result.Sources)
	assert.Contains(t, result.Reasoning, ReasoningPreamble)
	assert.Contains(t, result.Reasoning, "- История ИТМО: https://itmo.ru/history")
}

func TestSearcher_Search_LimitsToMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := make([]map[string]string, 5)
		for i := range items {
			items[i] = map[string]string{
				"title": fmt.Sprintf("Result %d", i+1),
				"link":  fmt.Sprintf("https://example.com/page-%d", i+1),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(createSearchAPIResponse(items)))
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	searcher := NewSearcher(config, logger.NewTestLogger(t))

	result, err := searcher.Search(context.Background(), "test")

	assert.NoError(t, err)
	assert.Len(t, result.Sources, 3)
	assert.Equal(t, "https://example.com/page-1", result.Sources[0])
}

func TestSearcher_Search_ZeroItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	searcher := NewSearcher(config, logger.NewTestLogger(t))

	result, err := searcher.Search(context.Background(), "test")

	assert.NoError(t, err)
	assert.Empty(t, result.Sources)
	assert.Equal(t, ReasoningPreamble, result.Reasoning)
}

func TestSearcher_Search_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	config.Timeout = 50 * time.Millisecond
	searcher := NewSearcher(config, logger.NewTestLogger(t))

	result, err := searcher.Search(context.Background(), "test")

	assert.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	assert.True(t, ok)
	assert.Equal(t, errors.ErrCodeWebSearchTimeout, stdErr.Code)
	assert.Nil(t, result)
}

func TestSearcher_Search_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	searcher := NewSearcher(config, logger.NewTestLogger(t))

	errorBefore := testutil.ToFloat64(metrics.UpstreamCalls.WithLabelValues("web_search", "error"))

	result, err := searcher.Search(context.Background(), "test")

	assert.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	assert.True(t, ok)
	assert.Equal(t, errors.ErrCodeWebSearchFailed, stdErr.Code)
	assert.Nil(t, result)
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(metrics.UpstreamCalls.WithLabelValues("web_search", "error")))
}

func TestSearcher_Search_InvalidLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := createSearchAPIResponse([]map[string]string{
			{"title": "Broken", "link": "not a url"},
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	searcher := NewSearcher(config, logger.NewTestLogger(t))

	result, err := searcher.Search(context.Background(), "test")

	assert.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	assert.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidSourceURL, stdErr.Code)
	assert.Nil(t, result)
}

func TestSearcher_BuildSearchURL(t *testing.T) {
	searcher := NewSearcher(createTestConfig(), logger.NewTestLogger(t))
	u := searcher.buildSearchURL("test query")

	assert.Contains(t, u, "key=test-api-key")
	assert.Contains(t, u, "cx=test-engine-id")
	assert.Contains(t, u, "q=test+query")
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"https://itmo.ru/history", true},
		{"http://example.com", true},
		{"ftp://example.com/file", false},
		{"not a url", false},
		{"/relative/path", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidURL(tt.link))
		})
	}
}
