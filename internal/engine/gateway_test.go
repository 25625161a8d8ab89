package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"court-order-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...interface{})             {}
func (nopLogger) Error(msg string, err error, fields ...interface{}) {}
func (nopLogger) Debug(msg string, fields ...interface{})            {}
func (nopLogger) Warn(msg string, fields ...interface{})             {}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func invoke(t *testing.T, g *ProcessGateway, inv domain.Invocation) (domain.Outcome, int32) {
	t.Helper()
	var cleanups int32
	inv.Cleanup = func() { atomic.AddInt32(&cleanups, 1) }
	out := g.Invoke(context.Background(), inv)
	return out, atomic.LoadInt32(&cleanups)
}

func TestInvoke_Success(t *testing.T) {
	script := writeScript(t, `echo "{\"extractedText\":\"$1\"}"`)
	g := NewProcessGateway(nopLogger{})

	out, cleanups := invoke(t, g, domain.Invocation{
		Executable: "/bin/sh",
		Args:       []string{script, "hello"},
		Deadline:   5 * time.Second,
	})

	assert.Equal(t, domain.OutcomeSuccess, out.Kind())
	assert.Equal(t, 0, out.ExitCode)
	assert.JSONEq(t, `{"extractedText":"hello"}`, out.Stdout)
	assert.Equal(t, int32(1), cleanups)
}

func TestInvoke_WritesInputToStdin(t *testing.T) {
	script := writeScript(t, `cat`)
	g := NewProcessGateway(nopLogger{})

	out, _ := invoke(t, g, domain.Invocation{
		Executable: "/bin/sh",
		Args:       []string{script},
		Input:      []byte(`{"message":"hi"}`),
		Deadline:   5 * time.Second,
	})

	require.Equal(t, domain.OutcomeSuccess, out.Kind())
	assert.Equal(t, `{"message":"hi"}`, out.Stdout)
}

func TestInvoke_ExitError(t *testing.T) {
	script := writeScript(t, `echo "partial"; echo "boom" >&2; exit 3`)
	g := NewProcessGateway(nopLogger{})

	out, cleanups := invoke(t, g, domain.Invocation{
		Executable: "/bin/sh",
		Args:       []string{script},
		Deadline:   5 * time.Second,
	})

	assert.Equal(t, domain.OutcomeExitError, out.Kind())
	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, out.Stderr, "boom")
	assert.False(t, out.TimedOut)
	assert.Equal(t, int32(1), cleanups)
}

func TestInvoke_TimeoutKillsWorker(t *testing.T) {
	script := writeScript(t, `echo "early"; exec sleep 10`)
	g := NewProcessGateway(nopLogger{}, WithWaitDelay(500*time.Millisecond))

	start := time.Now()
	out, cleanups := invoke(t, g, domain.Invocation{
		Executable: "/bin/sh",
		Args:       []string{script},
		Deadline:   200 * time.Millisecond,
	})
	elapsed := time.Since(start)

	assert.Equal(t, domain.OutcomeTimeout, out.Kind())
	assert.True(t, out.TimedOut)
	assert.Empty(t, out.Stdout, "stdout is discarded on timeout")
	assert.Less(t, elapsed, 3*time.Second)
	assert.Equal(t, int32(1), cleanups)
}

func TestInvoke_StartFailure(t *testing.T) {
	g := NewProcessGateway(nopLogger{})

	out, cleanups := invoke(t, g, domain.Invocation{
		Executable: filepath.Join(t.TempDir(), "does-not-exist"),
		Deadline:   time.Second,
	})

	assert.Equal(t, domain.OutcomeStartFailure, out.Kind())
	assert.True(t, out.StartFailed)
	assert.Equal(t, -1, out.ExitCode)
	assert.Error(t, out.StartError)
	assert.Equal(t, int32(1), cleanups)
}

func TestInvoke_OutputIsCapped(t *testing.T) {
	script := writeScript(t, `i=0; while [ $i -lt 100 ]; do printf 'xxxxxxxxxx'; i=$((i+1)); done`)
	g := NewProcessGateway(nopLogger{}, WithMaxOutputBytes(64))

	out, _ := invoke(t, g, domain.Invocation{
		Executable: "/bin/sh",
		Args:       []string{script},
		Deadline:   5 * time.Second,
	})

	require.Equal(t, domain.OutcomeSuccess, out.Kind())
	assert.Len(t, out.Stdout, 64)
}

func TestInvoke_ExactlyOneTerminalKind(t *testing.T) {
	g := NewProcessGateway(nopLogger{}, WithWaitDelay(200*time.Millisecond))
	cases := map[domain.OutcomeKind]domain.Invocation{
		domain.OutcomeSuccess:      {Executable: "/bin/sh", Args: []string{"-c", "exit 0"}},
		domain.OutcomeExitError:    {Executable: "/bin/sh", Args: []string{"-c", "exit 1"}},
		domain.OutcomeTimeout:      {Executable: "/bin/sh", Args: []string{"-c", "exec sleep 5"}, Deadline: 100 * time.Millisecond},
		domain.OutcomeStartFailure: {Executable: "/nonexistent/worker"},
	}
	for want, inv := range cases {
		out := g.Invoke(context.Background(), inv)
		assert.Equal(t, want, out.Kind(), strings.Join(inv.Args, " "))
	}
}

func TestOutputValidator(t *testing.T) {
	v, err := NewOutputValidator()
	require.NoError(t, err)

	assert.NoError(t, v.ValidateExtraction(map[string]any{
		"extractedText":    "text",
		"wordCount":        float64(1),
		"processingStages": map[string]any{"text_extraction": true},
		"error":            nil,
	}))
	assert.Error(t, v.ValidateExtraction(map[string]any{"wordCount": "many"}))
	assert.Error(t, v.ValidateExtraction([]any{"not", "an", "object"}))

	assert.NoError(t, v.ValidateChat(map[string]any{"response": "hi", "ai_powered": true}))
	assert.Error(t, v.ValidateChat(map[string]any{"success": "yes"}))
}
