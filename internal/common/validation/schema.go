// internal/common/validation/schema.go
package validation

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// predictionRequestSchema is the JSON schema for the /api/request body.
// id is an opaque identifier (string or integer); query must be a
// non-empty string.
const predictionRequestSchema = `{
	"type": "object",
	"properties": {
		"id":    {"type": ["string", "integer"]},
		"query": {"type": "string", "minLength": 1}
	},
	"required": ["id", "query"]
}`

var predictionRequestLoader = gojsonschema.NewStringLoader(predictionRequestSchema)

// ValidatePredictionRequest checks a raw JSON body against the request
// schema and returns a human-readable message for each violation.
func ValidatePredictionRequest(body []byte) (bool, string) {
	documentLoader := gojsonschema.NewBytesLoader(body)

	result, err := gojsonschema.Validate(predictionRequestLoader, documentLoader)
	if err != nil {
		return false, err.Error()
	}

	if result.Valid() {
		return true, ""
	}

	msgs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		msgs[i] = desc.String()
	}
	return false, strings.Join(msgs, "; ")
}
