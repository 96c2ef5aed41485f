package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mannsakha/mannsakha/internal/apperror"
	"github.com/mannsakha/mannsakha/internal/llm"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeProvider is an in-memory llm.Provider. It counts calls so tests can
// assert which pipeline steps ran - the pipeline's short-circuit behaviour
// (no upstream call on bad input, no generation without models) is part of
// the contract.
type fakeProvider struct {
	models  []string
	listErr error

	result *llm.GenerateResult
	genErr error

	listCalls int
	genCalls  int

	// captured from the last GenerateContent call
	gotModel  string
	gotPrompt string
	gotConfig llm.GenerationConfig
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]string, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.models, nil
}

func (f *fakeProvider) GenerateContent(ctx context.Context, model, prompt string, cfg llm.GenerationConfig) (*llm.GenerateResult, error) {
	f.genCalls++
	f.gotModel = model
	f.gotPrompt = prompt
	f.gotConfig = cfg
	if f.genErr != nil {
		return nil, f.genErr
	}
	return f.result, nil
}

// textResult builds a single-candidate result with one text part.
func textResult(text string) *llm.GenerateResult {
	return &llm.GenerateResult{
		Candidates: []llm.Candidate{{Parts: []string{text}}},
	}
}

func newTestChatService(provider llm.Provider) *ChatService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewChatService(provider, "models/gemini-1.5-flash", 5*time.Second, logger)
}

// =========================================================================
// INPUT VALIDATION - must short-circuit before any upstream call
// =========================================================================

func TestReply_InvalidMessageMakesNoUpstreamCall(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"tabs and newlines", "\t\n  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{models: []string{"models/gemini-1.5-flash"}}
			svc := newTestChatService(provider)

			_, err := svc.Reply(context.Background(), tt.message)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Reply(%q) error = %v, want ErrValidation", tt.message, err)
			}

			if provider.listCalls != 0 || provider.genCalls != 0 {
				t.Errorf("Reply(%q) made upstream calls: list=%d gen=%d, want 0/0",
					tt.message, provider.listCalls, provider.genCalls)
			}
		})
	}
}

func TestReply_MissingProviderIsMisconfigured(t *testing.T) {
	svc := newTestChatService(nil)

	_, err := svc.Reply(context.Background(), "hello")
	if !errors.Is(err, apperror.ErrMisconfigured) {
		t.Fatalf("Reply() error = %v, want ErrMisconfigured", err)
	}
}

// =========================================================================
// MODEL DISCOVERY - availability probe gating generation
// =========================================================================

func TestReply_EmptyModelListStopsBeforeGeneration(t *testing.T) {
	provider := &fakeProvider{models: nil}
	svc := newTestChatService(provider)

	_, err := svc.Reply(context.Background(), "hello")
	if !errors.Is(err, apperror.ErrNoModels) {
		t.Fatalf("Reply() error = %v, want ErrNoModels", err)
	}

	if provider.genCalls != 0 {
		t.Errorf("generation was called %d times after an empty model list, want 0", provider.genCalls)
	}
}

func TestReply_FailedModelListStopsBeforeGeneration(t *testing.T) {
	provider := &fakeProvider{listErr: errors.New("connection refused")}
	svc := newTestChatService(provider)

	_, err := svc.Reply(context.Background(), "hello")
	if !errors.Is(err, apperror.ErrNoModels) {
		t.Fatalf("Reply() error = %v, want ErrNoModels", err)
	}

	if provider.genCalls != 0 {
		t.Errorf("generation was called %d times after a failed model list, want 0", provider.genCalls)
	}
}

// =========================================================================
// GENERATION AND NORMALIZATION
// =========================================================================

func TestReply_TrimsCandidateTextExactlyOnce(t *testing.T) {
	provider := &fakeProvider{
		models: []string{"models/gemini-1.5-flash"},
		result: textResult("  Paris  "),
	}
	svc := newTestChatService(provider)

	reply, err := svc.Reply(context.Background(), "What is the capital of France?")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply != "Paris" {
		t.Errorf("Reply() = %q, want %q", reply, "Paris")
	}

	if provider.listCalls != 1 || provider.genCalls != 1 {
		t.Errorf("upstream calls: list=%d gen=%d, want 1/1", provider.listCalls, provider.genCalls)
	}
}

func TestReply_WrapsMessageInFixedPrompt(t *testing.T) {
	provider := &fakeProvider{
		models: []string{"models/gemini-1.5-flash"},
		result: textResult("ok"),
	}
	svc := newTestChatService(provider)

	if _, err := svc.Reply(context.Background(), "I feel anxious"); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	want := promptPrefix + "I feel anxious"
	if provider.gotPrompt != want {
		t.Errorf("prompt = %q, want %q", provider.gotPrompt, want)
	}
	if provider.gotModel != "models/gemini-1.5-flash" {
		t.Errorf("model = %q, want the pinned model", provider.gotModel)
	}
}

func TestReply_UsesFixedSamplingConfig(t *testing.T) {
	provider := &fakeProvider{
		models: []string{"models/gemini-1.5-flash"},
		result: textResult("ok"),
	}
	svc := newTestChatService(provider)

	if _, err := svc.Reply(context.Background(), "hello"); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	cfg := provider.gotConfig
	if cfg.Temperature != 0.9 || cfg.TopK != 1 || cfg.TopP != 1 || cfg.MaxOutputTokens != 2048 {
		t.Errorf("generation config = %+v, want temperature 0.9, topK 1, topP 1, maxOutputTokens 2048", cfg)
	}
}

func TestReply_MissingCandidatesIsShapeError(t *testing.T) {
	tests := []struct {
		name   string
		result *llm.GenerateResult
	}{
		{"no candidates", &llm.GenerateResult{}},
		{"candidate without parts", &llm.GenerateResult{Candidates: []llm.Candidate{{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{
				models: []string{"models/gemini-1.5-flash"},
				result: tt.result,
			}
			svc := newTestChatService(provider)

			_, err := svc.Reply(context.Background(), "hello")
			if !errors.Is(err, apperror.ErrUpstreamShape) {
				t.Fatalf("Reply() error = %v, want ErrUpstreamShape", err)
			}
		})
	}
}

func TestReply_UpstreamErrorPassesThroughWithStatus(t *testing.T) {
	provider := &fakeProvider{
		models: []string{"models/gemini-1.5-flash"},
		genErr: &llm.UpstreamError{
			StatusCode: 429,
			Status:     "RESOURCE_EXHAUSTED",
			Detail:     []byte(`{"code":429,"message":"quota exceeded"}`),
		},
	}
	svc := newTestChatService(provider)

	_, err := svc.Reply(context.Background(), "hello")

	var upErr *llm.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Reply() error = %v, want *llm.UpstreamError", err)
	}
	if upErr.StatusCode != 429 {
		t.Errorf("UpstreamError.StatusCode = %d, want 429", upErr.StatusCode)
	}
	if string(upErr.Detail) != `{"code":429,"message":"quota exceeded"}` {
		t.Errorf("UpstreamError.Detail was not preserved verbatim: %s", upErr.Detail)
	}

	// Single attempt policy - no retry on upstream failure.
	if provider.genCalls != 1 {
		t.Errorf("generation was attempted %d times, want exactly 1", provider.genCalls)
	}
}
