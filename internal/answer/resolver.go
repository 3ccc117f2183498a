// internal/answer/resolver.go
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"itmo-qa/internal/common/errors"
	commonhttp "itmo-qa/internal/common/http"
	"itmo-qa/internal/common/logger"
	"itmo-qa/internal/common/metrics"
)

// NoAnswer is the sentinel returned when no valid answer number could be
// determined, distinct from genuine answers 1-10.
const NoAnswer = -1

const (
	systemPrompt       = "Ты помощник, который выбирает правильный ответ на вопросы об Университете ИТМО."
	userPromptTemplate = "Вопрос: %s\nВыбери правильный ответ из предложенных вариантов и укажи только его номер (цифру от 1 до 10)."
)

// Resolver asks the chat-completions API to pick the answer number for a
// multiple-choice question.
type Resolver struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
}

func NewResolver(config *Config, log logger.Logger) *Resolver {
	return &Resolver{
		config: config,
		client: commonhttp.NewClient(config.Timeout),
		logger: log.With(map[string]interface{}{
			"component": "answer-resolver",
		}),
	}
}

// Resolve sends the query to the LLM and parses the answer number from
// the completion. On failure it returns NoAnswer together with a typed
// error so the caller can tell a failed call from a genuine -1.
func (r *Resolver) Resolve(ctx context.Context, query string) (int, error) {
	requestBody := ChatRequest{
		Model: r.config.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptTemplate, query)},
		},
	}

	body, _ := json.Marshal(requestBody)
	req, err := http.NewRequestWithContext(ctx, "POST", r.config.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return NoAnswer, errors.NewLLMCompletionFailedError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.config.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.UpstreamCalls.WithLabelValues("llm", "error").Inc()
		if ctx.Err() == context.DeadlineExceeded ||
			strings.Contains(err.Error(), "timeout") ||
			strings.Contains(err.Error(), "deadline") ||
			strings.Contains(err.Error(), "Client.Timeout") {
			return NoAnswer, errors.NewLLMTimeoutError()
		}
		return NoAnswer, errors.NewLLMCompletionFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamCalls.WithLabelValues("llm", "error").Inc()
		return NoAnswer, errors.NewLLMCompletionFailedError(fmt.Errorf("completions API returned %d", resp.StatusCode))
	}

	var apiResponse ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		metrics.UpstreamCalls.WithLabelValues("llm", "error").Inc()
		return NoAnswer, errors.NewLLMCompletionFailedError(fmt.Errorf("decode error: %w", err))
	}

	if len(apiResponse.Choices) == 0 {
		metrics.UpstreamCalls.WithLabelValues("llm", "error").Inc()
		return NoAnswer, errors.NewLLMCompletionFailedError(fmt.Errorf("completion contained no choices"))
	}

	content := apiResponse.Choices[0].Message.Content
	answer, err := parseAnswer(content)
	if err != nil {
		metrics.UpstreamCalls.WithLabelValues("llm", "parse_error").Inc()
		return NoAnswer, err
	}

	metrics.UpstreamCalls.WithLabelValues("llm", "success").Inc()
	r.logger.Info("answer resolved", map[string]interface{}{
		"answer": answer,
	})

	return answer, nil
}

// parseAnswer takes the last whitespace-separated token of the reply and
// converts it to an answer number. The model is free to reason before the
// final digit; only the last token counts. Values outside 1-10 are
// rejected so the response invariant answer in {-1} or [1,10] holds.
func parseAnswer(content string) (int, error) {
	tokens := strings.Fields(strings.TrimSpace(content))
	if len(tokens) == 0 {
		return NoAnswer, errors.NewAnswerParseFailedError(content)
	}

	last := strings.Trim(tokens[len(tokens)-1], ".,;:!?)")
	n, err := strconv.Atoi(last)
	if err != nil {
		return NoAnswer, errors.NewAnswerParseFailedError(content)
	}

	if n < 1 || n > 10 {
		return NoAnswer, errors.NewAnswerParseFailedError(content)
	}

	return n, nil
}
