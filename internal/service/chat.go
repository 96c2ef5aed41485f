package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mannsakha/mannsakha/internal/apperror"
	"github.com/mannsakha/mannsakha/internal/llm"
)

// promptPrefix wraps every user message before it reaches the model. It
// asks for a bare text answer - no role-play, no commentary - which is the
// response shape clients implicitly rely on. Not user-visible.
const promptPrefix = "Just give me the text response to the following input: "

// Fixed sampling configuration. These are constants of the pipeline, not
// request-tunable.
var generationConfig = llm.GenerationConfig{
	Temperature:     0.9,
	TopK:            1,
	TopP:            1,
	MaxOutputTokens: 2048,
}

// ChatService is the chat-proxy pipeline: one text message in, one
// normalized reply (or a stable error) out.
//
// Each Reply invocation is independent and stateless - no conversation
// history, no cross-request shared state. Concurrent invocations need no
// coordination beyond what net/http already provides per request.
type ChatService struct {
	// provider is nil when no upstream API key is configured. The server
	// still runs; Reply reports the misconfiguration per request instead.
	provider llm.Provider
	model    string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewChatService creates a ChatService. model is the pinned upstream model
// id (e.g. "models/gemini-1.5-flash"); timeout bounds each whole pipeline
// invocation, listing and generation together.
func NewChatService(provider llm.Provider, model string, timeout time.Duration, logger *slog.Logger) *ChatService {
	return &ChatService{
		provider: provider,
		model:    model,
		timeout:  timeout,
		logger:   logger,
	}
}

// Reply runs the pipeline for one message:
//
//  1. Validate the message - empty or whitespace-only fails before any
//     network I/O.
//  2. Check configuration - a missing API key is fatal to the request,
//     also before any network I/O.
//  3. List the upstream's models. This is an availability probe, not a
//     selection algorithm: a failed or empty list stops the pipeline, a
//     non-empty one clears the pinned model for use.
//  4. Wrap the message in the fixed prompt and generate with the fixed
//     sampling config. Single attempt - nothing in this pipeline retries.
//  5. Normalize: first candidate's first text part, trimmed once. A payload
//     without one is an unexpected-shape error, never a panic.
//
// Steps are strictly sequential; the caller's context (plus the configured
// timeout) cancels whichever upstream call is in flight if the client
// disconnects.
func (s *ChatService) Reply(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apperror.ValidationFailed("message", "Invalid message format")
	}

	if s.provider == nil {
		return "", apperror.Misconfigured("API key not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	models, err := s.provider.ListModels(ctx)
	if err != nil {
		s.logger.Error("model listing failed", slog.String("error", err.Error()))
		return "", apperror.NoModels("Could not retrieve available models.")
	}
	if len(models) == 0 {
		return "", apperror.NoModels("No models are available to your API key.")
	}

	result, err := s.provider.GenerateContent(ctx, s.model, promptPrefix+message, generationConfig)
	if err != nil {
		var upErr *llm.UpstreamError
		if errors.As(err, &upErr) {
			s.logger.Error("upstream generation error",
				slog.Int("status", upErr.StatusCode),
				slog.String("upstreamStatus", upErr.Status),
			)
			return "", err
		}
		return "", fmt.Errorf("service/chat: generating content: %w", err)
	}

	text, ok := result.FirstText()
	if !ok {
		s.logger.Error("upstream response had no text candidate", slog.String("model", s.model))
		return "", apperror.UpstreamShape("Unexpected Gemini API response structure")
	}

	return strings.TrimSpace(text), nil
}
