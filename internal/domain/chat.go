package domain

import "time"

// ChatMode selects whether a chat turn is grounded in document text.
type ChatMode string

const (
	ChatModeGeneral  ChatMode = "general"
	ChatModeDocument ChatMode = "document"
)

// ChatRequest is the inbound body of the chat endpoint.
type ChatRequest struct {
	Message      string   `json:"message" validate:"required"`
	Mode         ChatMode `json:"mode"`
	DocumentText string   `json:"documentText"`
}

// ChatTurn is the response of one conversational turn. Failures are reported
// through Success, never through the HTTP status.
type ChatTurn struct {
	Response       string    `json:"response"`
	Mode           ChatMode  `json:"mode"`
	Success        bool      `json:"success"`
	UsingDocument  bool      `json:"using_document"`
	AIPowered      bool      `json:"ai_powered"`
	ProcessingTime float64   `json:"processing_time"`
	Timeout        bool      `json:"timeout,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// EnginePayload is written to the chat engine's stdin.
type EnginePayload struct {
	Message      string   `json:"message"`
	Mode         ChatMode `json:"mode"`
	DocumentText *string  `json:"documentText"`
}

// LegalAssistantContext is the optional document context sent by the UI.
type LegalAssistantContext struct {
	ExtractedText    string            `json:"extractedText"`
	Summary          string            `json:"summary"`
	DocumentAnalysis *DocumentAnalysis `json:"documentAnalysis,omitempty"`
}

// LegalAssistantRequest is the inbound body of the legal-assistant endpoint.
type LegalAssistantRequest struct {
	Message string                 `json:"message" validate:"required"`
	Context *LegalAssistantContext `json:"context"`
	History []map[string]any       `json:"history"`
}

// LegalAssistantResponse is a canned, rule-selected answer.
type LegalAssistantResponse struct {
	Response   string    `json:"response"`
	Timestamp  time.Time `json:"timestamp"`
	Disclaimer string    `json:"disclaimer"`
}
