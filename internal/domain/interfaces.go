package domain

import (
	"context"
	"time"
)

// PipelineVariant selects the engine script and validation rules of a run.
type PipelineVariant string

const (
	// PipelineStandard runs the document processor.
	PipelineStandard PipelineVariant = "standard"
	// PipelineComplete runs the clean, integrated processor.
	PipelineComplete PipelineVariant = "complete"
	// PipelineExtract runs text extraction only (PDF).
	PipelineExtract PipelineVariant = "extract"
)

// Upload is an uploaded file held in memory for the duration of a request.
type Upload struct {
	Content []byte
	File    FileDescriptor
}

// ProgressEvent is one step of the simulated progress schedule.
type ProgressEvent struct {
	Step    int     `json:"step"`
	Total   int     `json:"total"`
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Done    bool    `json:"done"`
}

// ProgressFunc receives progress events. It may be nil.
type ProgressFunc func(ProgressEvent)

// DocumentPipeline validates, stages and processes uploads.
type DocumentPipeline interface {
	Process(ctx context.Context, variant PipelineVariant, upload Upload, opts ProcessingOptions, progress ProgressFunc) (ExtractionResult, error)
}

// QueryService answers questions against extracted text.
type QueryService interface {
	Ask(req QueryRequest) (QueryAnswer, error)
}

// ChatService routes a conversational turn to the chat engine.
type ChatService interface {
	Route(ctx context.Context, message string, mode ChatMode, documentText string) ChatTurn
}

// LegalAssistantService answers from a fixed table of canned responses.
type LegalAssistantService interface {
	Respond(req LegalAssistantRequest) LegalAssistantResponse
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetLogFormat() string
	GetStagingDir() string
	GetMaxFileSize() int64
	GetMaxExtractFileSize() int64
	GetEngineExecutable() string
	GetEngineScript(variant PipelineVariant) string
	GetChatScript() string
	GetProcessTimeout() time.Duration
	GetChatTimeout() time.Duration
	GetProgressInterval() time.Duration
	GetLenientEngineJSON() bool
	GetAllowedOrigins() []string
}
