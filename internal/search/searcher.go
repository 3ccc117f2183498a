// internal/search/searcher.go
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"itmo-qa/internal/common/errors"
	commonhttp "itmo-qa/internal/common/http"
	"itmo-qa/internal/common/logger"
	"itmo-qa/internal/common/metrics"
)

const (
	// ReasoningPreamble opens the reasoning text when sources were found.
	ReasoningPreamble = "Результаты поиска указывают на следующие источники:"

	// FallbackReasoning is returned to the client when the search failed
	// or produced no sources.
	FallbackReasoning = "Не удалось найти релевантную информацию."
)

// Searcher queries the Google Custom Search JSON API for links
// supporting a query.
type Searcher struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
}

func NewSearcher(config *Config, log logger.Logger) *Searcher {
	return &Searcher{
		config: config,
		client: commonhttp.NewClient(config.Timeout),
		logger: log.With(map[string]interface{}{
			"component": "link-searcher",
		}),
	}
}

// Search returns up to MaxResults validated source links and the
// reasoning text listing them. Failures come back as typed errors; the
// caller decides how to degrade.
func (s *Searcher) Search(ctx context.Context, query string) (*Result, error) {
	req, err := http.NewRequest("GET", s.buildSearchURL(query), nil)
	if err != nil {
		return nil, errors.NewWebSearchFailedError(err)
	}

	resp, err := s.client.DoWithContext(ctx, req)
	if err != nil {
		metrics.UpstreamCalls.WithLabelValues("web_search", "error").Inc()
		if ctx.Err() == context.DeadlineExceeded ||
			strings.Contains(err.Error(), "timeout") ||
			strings.Contains(err.Error(), "deadline") ||
			strings.Contains(err.Error(), "Client.Timeout") {
			return nil, errors.NewWebSearchTimeoutError()
		}
		return nil, errors.NewWebSearchFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamCalls.WithLabelValues("web_search", "error").Inc()
		return nil, errors.NewWebSearchFailedError(fmt.Errorf("search API returned %d", resp.StatusCode))
	}

	var apiResponse struct {
		Items []searchItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		metrics.UpstreamCalls.WithLabelValues("web_search", "error").Inc()
		return nil, errors.NewWebSearchFailedError(fmt.Errorf("decode error: %w", err))
	}

	items := apiResponse.Items
	if len(items) > s.config.MaxResults {
		items = items[:s.config.MaxResults]
	}

	sources := make([]string, 0, len(items))
	reasoning := ReasoningPreamble
	for _, item := range items {
		if !isValidURL(item.Link) {
			metrics.UpstreamCalls.WithLabelValues("web_search", "invalid_url").Inc()
			return nil, errors.NewInvalidSourceURLError(item.Link)
		}
		sources = append(sources, item.Link)
		reasoning += fmt.Sprintf("\n- %s: %s", item.Title, item.Link)
	}

	metrics.UpstreamCalls.WithLabelValues("web_search", "success").Inc()
	s.logger.Info("web search completed", map[string]interface{}{
		"query":       query,
		"resultCount": len(sources),
	})

	return &Result{Sources: sources, Reasoning: reasoning}, nil
}

func (s *Searcher) buildSearchURL(query string) string {
	baseURL, _ := url.Parse(s.config.BaseURL)
	params := url.Values{}
	params.Add("key", s.config.APIKey)
	params.Add("cx", s.config.EngineID)
	params.Add("q", query)
	baseURL.RawQuery = params.Encode()
	return baseURL.String()
}

func isValidURL(link string) bool {
	u, err := url.ParseRequestURI(link)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
