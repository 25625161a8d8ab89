package engine

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"court-order-server/internal/domain"
)

const (
	// DefaultMaxOutputBytes caps each of stdout and stderr.
	DefaultMaxOutputBytes = 32 << 20
	// DefaultWaitDelay bounds how long Wait drains pipes after the worker
	// was killed or exited while a grandchild still holds them open.
	DefaultWaitDelay = 2 * time.Second

	stderrLogLimit = 8 << 10
)

// ProcessGateway runs one local process per invocation.
type ProcessGateway struct {
	logger         domain.Logger
	maxOutputBytes int
	waitDelay      time.Duration
}

// Option tunes a ProcessGateway.
type Option func(*ProcessGateway)

// WithMaxOutputBytes overrides the per-stream output cap.
func WithMaxOutputBytes(n int) Option {
	return func(g *ProcessGateway) {
		if n > 0 {
			g.maxOutputBytes = n
		}
	}
}

// WithWaitDelay overrides the pipe drain bound applied after a kill.
func WithWaitDelay(d time.Duration) Option {
	return func(g *ProcessGateway) {
		if d > 0 {
			g.waitDelay = d
		}
	}
}

// NewProcessGateway creates a gateway that spawns workers with os/exec.
func NewProcessGateway(logger domain.Logger, opts ...Option) *ProcessGateway {
	g := &ProcessGateway{
		logger:         logger,
		maxOutputBytes: DefaultMaxOutputBytes,
		waitDelay:      DefaultWaitDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke runs the worker to completion, to its deadline or until ctx is done.
// It never parses the worker's output.
func (g *ProcessGateway) Invoke(ctx context.Context, inv domain.Invocation) domain.Outcome {
	if inv.Cleanup != nil {
		defer inv.Cleanup()
	}

	start := time.Now()

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if inv.Deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, inv.Deadline)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, inv.Executable, inv.Args...)
	cmd.WaitDelay = g.waitDelay
	stdout := newCappedBuffer(g.maxOutputBytes)
	stderr := newCappedBuffer(g.maxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if inv.Input != nil {
		cmd.Stdin = bytes.NewReader(inv.Input)
	}

	if err := cmd.Start(); err != nil {
		out := domain.Outcome{
			ExitCode:    -1,
			StartFailed: true,
			StartError:  err,
			Duration:    time.Since(start),
		}
		g.logger.Error("engine start failed", err,
			"cmd", inv.Executable,
			"args", strings.Join(inv.Args, " "),
		)
		return out
	}

	waitErr := cmd.Wait()
	out := domain.Outcome{
		ExitCode: exitCode(cmd, waitErr),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		out.TimedOut = true
		out.Stdout = ""
		if out.ExitCode == 0 {
			out.ExitCode = -1
		}
	}

	g.logOutcome(inv, out, waitErr, stdout.Truncated() || stderr.Truncated())
	return out
}

func (g *ProcessGateway) logOutcome(inv domain.Invocation, out domain.Outcome, waitErr error, truncated bool) {
	fields := []interface{}{
		"cmd", inv.Executable,
		"args", strings.Join(inv.Args, " "),
		"duration_ms", out.Duration.Milliseconds(),
		"exit_code", out.ExitCode,
		"outcome", string(out.Kind()),
	}
	if truncated {
		fields = append(fields, "output_truncated", true)
	}

	switch out.Kind() {
	case domain.OutcomeTimeout:
		g.logger.Warn("engine killed after deadline", append(fields, "deadline_ms", inv.Deadline.Milliseconds())...)
	case domain.OutcomeExitError:
		g.logger.Error("engine exited with error", waitErr,
			append(fields, "stderr", truncate(out.Stderr, stderrLogLimit))...)
	default:
		g.logger.Debug("engine ok",
			append(fields, "stdout_bytes", len(out.Stdout), "stderr_bytes", len(out.Stderr))...)
	}
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	var ee *exec.ExitError
	if errors.As(waitErr, &ee) {
		return ee.ExitCode()
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if waitErr != nil {
		return -1
	}
	return 0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// cappedBuffer keeps the first limit bytes and silently discards the rest so
// the copying goroutine in os/exec never sees a short write.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *cappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}
