package handler

import (
	"net/http"

	"court-order-server/internal/config"
	"court-order-server/internal/domain"
)

// QAHandler answers questions against previously extracted text
type QAHandler struct {
	qa     domain.QueryService
	logger domain.Logger
}

// NewQAHandler creates a new QA handler
func NewQAHandler(container *config.Container) *QAHandler {
	return &QAHandler{
		qa:     container.QAService,
		logger: container.GetLogger(),
	}
}

// Query handles POST /qa-query
func (h *QAHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req domain.QueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	answer, err := h.qa.Ask(req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
