package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mannsakha/mannsakha/internal/apperror"
	"github.com/mannsakha/mannsakha/internal/llm"
	"github.com/mannsakha/mannsakha/internal/service"
)

// ChatHandler exposes the chat proxy endpoint.
//
// CONTRACT (differs from the rest of the API):
// Success and failure both answer with a body whose primary field is
// `reply`. Upstream-reported failures additionally carry the provider's
// diagnostic body under `error`, and the response status mirrors the
// upstream status. Clients were built against this shape, so it is kept
// as-is rather than folded into the standard error envelope.
type ChatHandler struct {
	chat   *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chat *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// ChatRequest is the POST /api/gemini body. Ephemeral - nothing about the
// exchange is persisted.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply contract for both success and failure.
type ChatResponse struct {
	Reply string          `json:"reply"`
	Error json.RawMessage `json:"error,omitempty"` // upstream diagnostic, verbatim
}

// HandleChat proxies one message through the generation pipeline.
//
// HTTP: POST /api/gemini
//
//	200 {reply}                      - normalized answer text
//	400 {reply}                      - missing/empty/non-text message
//	500 {reply}                      - misconfigured key, no models,
//	                                   unexpected upstream shape, internal
//	<upstream> {reply,error}         - upstream-reported failure, status
//	                                   and body mirrored from the provider
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// A non-string message field (number, object) fails to decode into
		// the string-typed struct - same outcome as a missing message.
		writeJSON(w, http.StatusBadRequest, ChatResponse{Reply: "Invalid message format"})
		return
	}

	reply, err := h.chat.Reply(r.Context(), req.Message)
	if err != nil {
		h.writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// writeChatError maps pipeline errors to the chat contract.
func (h *ChatHandler) writeChatError(w http.ResponseWriter, err error) {
	var upErr *llm.UpstreamError
	if errors.As(err, &upErr) {
		status := upErr.StatusCode
		if status < http.StatusBadRequest || status > 599 {
			// Upstream didn't give a usable HTTP status.
			status = http.StatusBadGateway
		}
		writeJSON(w, status, ChatResponse{
			Reply: "Gemini API Error",
			Error: upErr.Detail,
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		if errors.Is(err, apperror.ErrValidation) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, ChatResponse{Reply: appErr.Message})
		return
	}

	h.logger.Error("chat request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ChatResponse{Reply: "Internal Server Error"})
}
