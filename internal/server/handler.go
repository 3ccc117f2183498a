// internal/server/handler.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"itmo-qa/internal/answer"
	"itmo-qa/internal/common/errors"
	"itmo-qa/internal/common/logger"
	"itmo-qa/internal/common/validation"
	"itmo-qa/internal/models"
	"itmo-qa/internal/search"
)

// AnswerResolver picks the answer number for a multiple-choice question.
type AnswerResolver interface {
	Resolve(ctx context.Context, query string) (int, error)
}

// LinkSearcher finds supporting links for a query.
type LinkSearcher interface {
	Search(ctx context.Context, query string) (*search.Result, error)
}

// Handler is the prediction pipeline behind POST /api/request.
type Handler struct {
	resolver     AnswerResolver
	searcher     LinkSearcher
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(resolver AnswerResolver, searcher LinkSearcher, log logger.Logger) *Handler {
	return &Handler{
		resolver:     resolver,
		searcher:     searcher,
		errorHandler: errors.NewErrorHandler(log),
		logger: log.With(map[string]interface{}{
			"component": "prediction-handler",
		}),
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/request", h.handlePredict)
	mux.HandleFunc("/healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	// Anything unexpected inside the pipeline becomes a generic 500;
	// the panic value never reaches the client.
	defer func() {
		if rec := recover(); rec != nil {
			h.errorHandler.Respond(w, errors.NewInternalError(fmt.Errorf("panic: %v", rec)))
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorHandler.Respond(w, errors.NewValidationFailedError("failed to read request body"))
		return
	}

	if ok, msg := validation.ValidatePredictionRequest(body); !ok {
		h.errorHandler.Respond(w, errors.NewValidationFailedError(msg))
		return
	}

	var req models.PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.errorHandler.Respond(w, errors.NewValidationFailedError(err.Error()))
		return
	}

	h.logger.Info("processing prediction request", map[string]interface{}{
		"id": string(req.ID),
	})

	answerNum := h.resolveAnswer(r.Context(), req.Query)
	sources, reasoning := h.searchLinks(r.Context(), req.Query)

	response := models.PredictionResponse{
		ID:        req.ID,
		Answer:    answerNum,
		Reasoning: reasoning,
		Sources:   sources,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)

	h.logger.Info("prediction request completed", map[string]interface{}{
		"id":     string(req.ID),
		"answer": response.Answer,
	})
}

// resolveAnswer degrades any upstream failure to the -1 sentinel. The
// typed error is logged so outages stay visible server-side. The
// sentinel is forced here, not trusted from the resolver, so the
// {-1} or [1,10] invariant holds whatever the implementation returns
// alongside an error.
func (h *Handler) resolveAnswer(ctx context.Context, query string) int {
	num, err := h.resolver.Resolve(ctx, query)
	if err != nil {
		h.logDegraded(err, "answer resolution failed, using sentinel")
		return answer.NoAnswer
	}
	return num
}

// searchLinks degrades any upstream failure, and the zero-results case,
// to an empty source list with the fixed fallback reasoning.
func (h *Handler) searchLinks(ctx context.Context, query string) ([]string, string) {
	result, err := h.searcher.Search(ctx, query)
	if err != nil {
		h.logDegraded(err, "link search failed, returning fallback")
		return []string{}, search.FallbackReasoning
	}
	if len(result.Sources) == 0 {
		return []string{}, search.FallbackReasoning
	}
	return result.Sources, result.Reasoning
}

// logDegraded logs a failure that is being degraded rather than
// surfaced. Expected upstream outages log at warn; anything else is a
// programming error and logs at error.
func (h *Handler) logDegraded(err error, msg string) {
	fields := map[string]interface{}{
		"error": err.Error(),
	}
	if stdErr, ok := err.(*errors.StandardError); ok && stdErr.IsUpstream() {
		h.logger.Warn(msg, fields)
		return
	}
	h.logger.Error(msg, fields)
}
