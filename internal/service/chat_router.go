package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"court-order-server/internal/domain"
	"court-order-server/internal/engine"
)

const (
	chatTimeoutResponse = "The request took too long to process. Please try again with a shorter question."
	chatFailureResponse = "Sorry, I encountered an error while processing your request. Please try again."
	chatNoReplyResponse = "I apologize, but I could not generate a proper response."
	chatStderrLogLimit  = 4 << 10
	defaultChatDeadline = 30 * time.Second
)

type rawChatReply struct {
	Response       *string  `json:"response"`
	Success        *bool    `json:"success"`
	UsingDocument  *bool    `json:"using_document"`
	AIPowered      *bool    `json:"ai_powered"`
	ProcessingTime *float64 `json:"processing_time"`
}

// ChatRouter decides whether a turn is grounded in a document and hands it to
// the chat engine. It never returns an error: failures become unsuccessful
// turns.
type ChatRouter struct {
	engine    domain.Engine
	validator *engine.OutputValidator
	config    domain.Config
	logger    domain.Logger
}

// NewChatRouter creates a new chat router
func NewChatRouter(eng domain.Engine, validator *engine.OutputValidator, config domain.Config, logger domain.Logger) *ChatRouter {
	return &ChatRouter{
		engine:    eng,
		validator: validator,
		config:    config,
		logger:    logger,
	}
}

// EffectiveMode downgrades a document request to general when there is no
// document text to ground it in.
func EffectiveMode(requested domain.ChatMode, documentText string) domain.ChatMode {
	if requested == domain.ChatModeDocument && strings.TrimSpace(documentText) != "" {
		return domain.ChatModeDocument
	}
	return domain.ChatModeGeneral
}

// Route runs one chat turn.
func (r *ChatRouter) Route(ctx context.Context, message string, mode domain.ChatMode, documentText string) domain.ChatTurn {
	effective := EffectiveMode(mode, documentText)
	payload := domain.EnginePayload{Message: message, Mode: effective}
	if effective == domain.ChatModeDocument {
		payload.DocumentText = &documentText
	}

	turn := domain.ChatTurn{
		Mode:      effective,
		Timestamp: time.Now().UTC(),
	}

	input, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("Failed to encode chat payload", err)
		turn.Response = chatFailureResponse
		return turn
	}

	deadline := r.config.GetChatTimeout()
	if deadline <= 0 {
		deadline = defaultChatDeadline
	}

	outcome := r.engine.Invoke(ctx, domain.Invocation{
		Executable: r.config.GetEngineExecutable(),
		Args:       []string{r.config.GetChatScript()},
		Input:      input,
		Deadline:   deadline,
	})
	turn.Timestamp = time.Now().UTC()

	switch outcome.Kind() {
	case domain.OutcomeTimeout:
		r.logger.Warn("Chat engine timed out", "mode", string(effective), "deadline_ms", deadline.Milliseconds())
		turn.Response = chatTimeoutResponse
		turn.Timeout = true
		return turn
	case domain.OutcomeStartFailure:
		r.logger.Error("Chat engine unavailable", outcome.StartError)
		turn.Response = chatFailureResponse
		return turn
	case domain.OutcomeExitError:
		r.logger.Error("Chat engine failed", fmt.Errorf("exit code %d", outcome.ExitCode),
			"stderr", truncate(outcome.Stderr, chatStderrLogLimit),
		)
		turn.Response = chatFailureResponse
		return turn
	}

	reply, err := r.decode(outcome.Stdout)
	if err != nil {
		r.logger.Warn("Chat engine output rejected", "error", err.Error(), "stdout_bytes", len(outcome.Stdout))
		turn.Response = chatFailureResponse
		return turn
	}

	turn.Response = chatNoReplyResponse
	if reply.Response != nil && strings.TrimSpace(*reply.Response) != "" {
		turn.Response = *reply.Response
	}
	if reply.Success != nil {
		turn.Success = *reply.Success
	}
	if reply.UsingDocument != nil {
		turn.UsingDocument = *reply.UsingDocument
	}
	if reply.AIPowered != nil {
		turn.AIPowered = *reply.AIPowered
	}
	if reply.ProcessingTime != nil {
		turn.ProcessingTime = *reply.ProcessingTime
	}
	if payload.DocumentText == nil {
		turn.UsingDocument = false
	}

	r.logger.Debug("Chat turn completed",
		"mode", string(effective),
		"success", turn.Success,
		"ai_powered", turn.AIPowered,
		"duration_ms", outcome.Duration.Milliseconds(),
	)
	return turn
}

func (r *ChatRouter) decode(stdout string) (rawChatReply, error) {
	data, doc, err := decodeEngineJSON(stdout, r.config.GetLenientEngineJSON())
	if err != nil {
		return rawChatReply{}, err
	}
	if err := r.validator.ValidateChat(doc); err != nil {
		return rawChatReply{}, err
	}
	var reply rawChatReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return rawChatReply{}, fmt.Errorf("decode chat output: %w", err)
	}
	return reply, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
