// internal/common/errors/errors.go
// Package errors provides standardized error handling for the prediction pipeline.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeLLMCompletionFailed ErrorCode = "LLM_COMPLETION_FAILED"
	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeAnswerParseFailed   ErrorCode = "ANSWER_PARSE_FAILED"

	ErrCodeWebSearchFailed  ErrorCode = "WEB_SEARCH_FAILED"
	ErrCodeWebSearchTimeout ErrorCode = "WEB_SEARCH_TIMEOUT"
	ErrCodeInvalidSourceURL ErrorCode = "INVALID_SOURCE_URL"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// IsUpstream reports whether the error came from an external collaborator
// (LLM or search API). Upstream failures are degraded, never surfaced as
// HTTP errors.
func (e *StandardError) IsUpstream() bool {
	switch e.Code {
	case ErrCodeLLMCompletionFailed, ErrCodeLLMTimeout, ErrCodeAnswerParseFailed,
		ErrCodeWebSearchFailed, ErrCodeWebSearchTimeout, ErrCodeInvalidSourceURL:
		return true
	}
	return false
}

// HTTPStatus maps an error code to the status it surfaces as when it does
// reach the HTTP boundary.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMCompletionFailedError creates a retryable LLM call error.
func NewLLMCompletionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMCompletionFailed,
		Message:   "LLM completion request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM completion request timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnswerParseFailedError creates a non-retryable parse error for a
// completion whose final token is not a valid answer number.
func NewAnswerParseFailedError(content string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnswerParseFailed,
		Message:   "Could not parse answer number from completion",
		Details:   fmt.Sprintf("content: %q", content),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWebSearchFailedError creates a retryable search API error.
func NewWebSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWebSearchFailed,
		Message:   "Web search request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWebSearchTimeoutError creates a retryable search timeout error.
func NewWebSearchTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeWebSearchTimeout,
		Message:   "Web search request timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSourceURLError creates a non-retryable error for a search
// result whose link is not a well-formed URL.
func NewInvalidSourceURLError(link string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSourceURL,
		Message:   "Search result link is not a valid URL",
		Details:   fmt.Sprintf("link: %s", link),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps anything unexpected.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
