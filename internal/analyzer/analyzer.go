package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xaenox/tonebuddy/internal/models"
)

var (
	// ErrEmptyResponse is returned when the completion carries no content
	ErrEmptyResponse = errors.New("empty AI response")

	// ErrInvalidJSON is returned when the completion content is not JSON
	ErrInvalidJSON = errors.New("invalid JSON from model")

	// ErrSchemaMismatch is returned when the content is JSON but not an
	// analysis result
	ErrSchemaMismatch = errors.New("model response does not match schema")
)

// ProviderError carries a non-2xx provider answer so callers can relay it.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// Analysis is a validated model answer together with the exact bytes the
// model produced.
type Analysis struct {
	Result models.AnalysisResult
	Raw    json.RawMessage
}

type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
}

// Outcome names the class of err for logs and metrics.
func Outcome(err error) string {
	var providerErr *ProviderError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &providerErr):
		return "provider_error"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrInvalidJSON):
		return "invalid_json"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// decode turns completion content into an Analysis.
func decode(content []byte) (*Analysis, error) {
	if !json.Valid(content) {
		return nil, ErrInvalidJSON
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(content, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	return &Analysis{Result: result, Raw: json.RawMessage(content)}, nil
}
