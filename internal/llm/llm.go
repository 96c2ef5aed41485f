// Package llm defines the interface to the upstream generation provider.
//
// The chat service depends on this narrow interface, never on a concrete
// SDK - handler and service tests swap in a mock, exactly like the rest of
// the app mocks its repositories. The gemini subpackage provides the real
// implementation.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// GenerationConfig is the sampling configuration for a generation call.
// The chat pipeline uses fixed values; nothing here is client-tunable.
type GenerationConfig struct {
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

// Candidate is one generated completion. Parts holds the text parts only;
// non-text parts are dropped by providers.
type Candidate struct {
	Parts []string
}

// GenerateResult is a provider-agnostic generation response.
type GenerateResult struct {
	Candidates []Candidate
}

// FirstText returns the first candidate's first text part.
// ok is false when the response has no usable text - the caller surfaces
// that as an unexpected-shape error rather than an empty reply.
func (r *GenerateResult) FirstText() (string, bool) {
	if r == nil || len(r.Candidates) == 0 || len(r.Candidates[0].Parts) == 0 {
		return "", false
	}
	return r.Candidates[0].Parts[0], true
}

// Provider is the upstream generation provider.
//
// ListModels returns the model identifiers the configured credentials are
// entitled to. GenerateContent runs a single completion - one attempt,
// no retries; failures come back as *UpstreamError when the provider
// reported them, or a plain error for transport problems.
type Provider interface {
	ListModels(ctx context.Context) ([]string, error)
	GenerateContent(ctx context.Context, model, prompt string, cfg GenerationConfig) (*GenerateResult, error)
}

// UpstreamError is a failure the provider itself reported. It preserves
// the upstream HTTP status and the diagnostic body verbatim so the API
// boundary can mirror both back to the client for debuggability.
type UpstreamError struct {
	StatusCode int             // upstream HTTP status (0 if unknown)
	Status     string          // upstream status string, e.g. "RESOURCE_EXHAUSTED"
	Detail     json.RawMessage // provider's error body, untouched
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d %s", e.StatusCode, e.Status)
}
