// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// InternalErrorDetail is the only message ever surfaced to clients on a
// 500; internal details stay in the server log.
const InternalErrorDetail = "Внутренняя ошибка сервера"

// ErrorHandler converts pipeline errors into HTTP responses with
// standardized logging.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Respond normalizes err to a StandardError, logs it, and writes the
// client-facing JSON body. Validation messages are surfaced; everything
// else gets the generic internal detail.
func (h *ErrorHandler) Respond(w http.ResponseWriter, err error) {
	stdErr := h.normalizeError(err)
	status := HTTPStatus(stdErr.Code)

	h.logger.Error("request failed", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"error":     stdErr.Message,
		"details":   stdErr.Details,
		"status":    status,
	})

	detail := InternalErrorDetail
	if stdErr.Code == ErrCodeValidationFailed {
		detail = stdErr.Details
		if detail == "" {
			detail = stdErr.Message
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// normalizeError ensures we always have a StandardError.
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
