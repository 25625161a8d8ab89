package service

import (
	"context"
	"sync"
	"time"

	"court-order-server/internal/domain"
	"court-order-server/internal/engine"
)

type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		messages: []string{},
	}
}

func (m *MockLogger) record(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, line)
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.record("INFO: " + msg)
}

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	if err != nil {
		msg += " - " + err.Error()
	}
	m.record("ERROR: " + msg)
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.record("DEBUG: " + msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.record("WARN: " + msg)
}

// MockConfig is a fixed domain.Config.
type MockConfig struct {
	stagingDir       string
	maxFileSize      int64
	maxExtractSize   int64
	executable       string
	scripts          map[domain.PipelineVariant]string
	chatScript       string
	processTimeout   time.Duration
	chatTimeout      time.Duration
	progressInterval time.Duration
	lenient          bool
}

func NewMockConfig(stagingDir string) *MockConfig {
	return &MockConfig{
		stagingDir:     stagingDir,
		maxFileSize:    100 * 1024 * 1024,
		maxExtractSize: 50 * 1024 * 1024,
		executable:     "python3",
		scripts: map[domain.PipelineVariant]string{
			domain.PipelineStandard: "scripts/document_processor.py",
			domain.PipelineComplete: "scripts/clean_processor.py",
			domain.PipelineExtract:  "scripts/extract_text.py",
		},
		chatScript:       "scripts/chat_handler_working.py",
		processTimeout:   5 * time.Second,
		chatTimeout:      5 * time.Second,
		progressInterval: 5 * time.Millisecond,
	}
}

func (c *MockConfig) GetServerPort() string        { return "0" }
func (c *MockConfig) GetLogLevel() string          { return "debug" }
func (c *MockConfig) GetLogFormat() string         { return "json" }
func (c *MockConfig) GetStagingDir() string        { return c.stagingDir }
func (c *MockConfig) GetMaxFileSize() int64        { return c.maxFileSize }
func (c *MockConfig) GetMaxExtractFileSize() int64 { return c.maxExtractSize }
func (c *MockConfig) GetEngineExecutable() string  { return c.executable }
func (c *MockConfig) GetEngineScript(v domain.PipelineVariant) string {
	return c.scripts[v]
}
func (c *MockConfig) GetChatScript() string              { return c.chatScript }
func (c *MockConfig) GetProcessTimeout() time.Duration   { return c.processTimeout }
func (c *MockConfig) GetChatTimeout() time.Duration      { return c.chatTimeout }
func (c *MockConfig) GetProgressInterval() time.Duration { return c.progressInterval }
func (c *MockConfig) GetLenientEngineJSON() bool         { return c.lenient }
func (c *MockConfig) GetAllowedOrigins() []string        { return nil }

// FakeEngine records invocations and returns a scripted outcome. Cleanup is
// run the way the real gateway runs it.
type FakeEngine struct {
	mu       sync.Mutex
	calls    []domain.Invocation
	outcome  domain.Outcome
	// onInvoke runs before the outcome is returned, while staged files exist.
	onInvoke func(inv domain.Invocation)
	delay    time.Duration
}

func (f *FakeEngine) Invoke(ctx context.Context, inv domain.Invocation) domain.Outcome {
	if inv.Cleanup != nil {
		defer inv.Cleanup()
	}
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.mu.Unlock()
	if f.onInvoke != nil {
		f.onInvoke(inv)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.outcome
}

func (f *FakeEngine) Calls() []domain.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Invocation(nil), f.calls...)
}

func mustValidator() *engine.OutputValidator {
	v, err := engine.NewOutputValidator()
	if err != nil {
		panic(err)
	}
	return v
}
