package domain

import (
	"context"
	"time"
)

// Invocation describes one run of an external worker.
type Invocation struct {
	Executable string
	Args       []string
	// Input is written to the worker's stdin, which is then closed. Nil
	// leaves stdin empty.
	Input []byte
	// Deadline bounds the whole run. Zero means no deadline beyond ctx.
	Deadline time.Duration
	// Cleanup releases whatever was staged for the worker. It runs exactly
	// once after the worker exited, was killed or failed to start.
	Cleanup func()
}

// OutcomeKind is the single terminal state of an invocation.
type OutcomeKind string

const (
	OutcomeSuccess      OutcomeKind = "success"
	OutcomeExitError    OutcomeKind = "exit_error"
	OutcomeTimeout      OutcomeKind = "timeout"
	OutcomeStartFailure OutcomeKind = "start_failure"
)

// Outcome is the raw, unparsed result of an invocation.
type Outcome struct {
	ExitCode    int
	Stdout      string
	Stderr      string
	TimedOut    bool
	StartFailed bool
	StartError  error
	Duration    time.Duration
}

// Kind classifies the outcome. Start failure wins over timeout, which wins
// over the exit code.
func (o Outcome) Kind() OutcomeKind {
	switch {
	case o.StartFailed:
		return OutcomeStartFailure
	case o.TimedOut:
		return OutcomeTimeout
	case o.ExitCode != 0:
		return OutcomeExitError
	default:
		return OutcomeSuccess
	}
}

// Engine runs an out-of-process worker. Implementations may spawn a local
// process or call a remote service; callers must not assume in-process work.
type Engine interface {
	Invoke(ctx context.Context, inv Invocation) Outcome
}
