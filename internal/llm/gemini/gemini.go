// Package gemini implements llm.Provider on Google's Gemini API.
//
// It wraps google.golang.org/genai rather than speaking REST by hand; the
// SDK handles auth headers, pagination of the model list, and decoding of
// the provider's error envelope. Errors the provider reports (quota,
// invalid key, safety blocks) are converted to *llm.UpstreamError with the
// provider's own status and body preserved.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/mannsakha/mannsakha/internal/llm"
)

// Config holds the client configuration.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// BaseURL overrides the API endpoint. Leave empty in production;
	// tests point it at a local httptest server.
	BaseURL string

	// HTTPClient overrides the underlying transport. Optional.
	HTTPClient *http.Client
}

// Client implements llm.Provider against the Gemini API.
type Client struct {
	client *genai.Client
}

// compile-time check that *Client implements llm.Provider
var _ llm.Provider = (*Client)(nil)

// New creates a Gemini client. It does not issue any network calls -
// a bad key surfaces on the first request, not here.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Client{client: client}, nil
}

// ListModels returns the model names the API key is entitled to.
// The SDK pages through the list endpoint; we flatten it to names.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var names []string

	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, wrapUpstream("listing models", err)
		}
		names = append(names, m.Name)
	}

	return names, nil
}

// GenerateContent runs one completion with the given sampling config and
// maps the response to the provider-agnostic result. Only text parts are
// carried over; a response without any text ends up with an empty
// candidate, which the pipeline treats as an unexpected shape.
func (c *Client) GenerateContent(ctx context.Context, model, prompt string, cfg llm.GenerationConfig) (*llm.GenerateResult, error) {
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		TopK:            genai.Ptr(cfg.TopK),
		TopP:            genai.Ptr(cfg.TopP),
		MaxOutputTokens: cfg.MaxOutputTokens,
	})
	if err != nil {
		return nil, wrapUpstream("generating content", err)
	}

	result := &llm.GenerateResult{}
	for _, cand := range resp.Candidates {
		var parts []string
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if part != nil && part.Text != "" {
					parts = append(parts, part.Text)
				}
			}
		}
		result.Candidates = append(result.Candidates, llm.Candidate{Parts: parts})
	}

	return result, nil
}

// wrapUpstream converts SDK errors into the domain's error types.
// A genai.APIError means the provider itself rejected the call - its code,
// status, and message are preserved verbatim for the client-facing error
// body. Anything else (DNS, timeouts, context cancellation) is passed
// through wrapped.
func wrapUpstream(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		detail, mErr := json.Marshal(apiErr)
		if mErr != nil {
			detail = json.RawMessage(fmt.Sprintf("%q", apiErr.Message))
		}
		return &llm.UpstreamError{
			StatusCode: apiErr.Code,
			Status:     apiErr.Status,
			Detail:     detail,
		}
	}
	return fmt.Errorf("gemini: %s: %w", op, err)
}
