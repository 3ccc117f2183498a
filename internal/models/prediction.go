// internal/models/prediction.go
package models

import "encoding/json"

// PredictionRequest is the body of POST /api/request. ID is an opaque
// identifier (string or integer) kept as raw JSON so the response echoes
// it byte-identically.
type PredictionRequest struct {
	ID    json.RawMessage `json:"id"`
	Query string          `json:"query"`
}

// PredictionResponse is the 200 body. Answer is 1-10, or -1 when no
// valid answer could be determined.
type PredictionResponse struct {
	ID        json.RawMessage `json:"id"`
	Answer    int             `json:"answer"`
	Reasoning string          `json:"reasoning"`
	Sources   []string        `json:"sources"`
}

// ErrorResponse is the body of 400/500 responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
