package handler

import (
	"net/http"
	"strings"

	"court-order-server/internal/config"
	"court-order-server/internal/domain"

	"github.com/go-playground/validator/v10"
)

// ChatHandler serves the conversational endpoints
type ChatHandler struct {
	chat      domain.ChatService
	assistant domain.LegalAssistantService
	validate  *validator.Validate
	logger    domain.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(container *config.Container) *ChatHandler {
	return &ChatHandler{
		chat:      container.ChatService,
		assistant: container.LegalAssistant,
		validate:  container.Validator,
		logger:    container.GetLogger(),
	}
}

// Chat handles POST /chat. Unknown modes are treated as general; engine
// failures are reported in the turn, not the status.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := h.validate.Var(req.Message, "required"); err != nil {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	turn := h.chat.Route(r.Context(), req.Message, req.Mode, req.DocumentText)
	writeJSON(w, http.StatusOK, turn)
}

// LegalAssistant handles POST /legal-assistant
func (h *ChatHandler) LegalAssistant(w http.ResponseWriter, r *http.Request) {
	var req domain.LegalAssistantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if err := h.validate.Var(strings.TrimSpace(req.Message), "required"); err != nil {
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}

	writeJSON(w, http.StatusOK, h.assistant.Respond(req))
}
