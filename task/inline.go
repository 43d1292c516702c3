package task

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrRunnerClosed is returned by futures obtained from a closed runner.
var ErrRunnerClosed = errors.New("task: runner is closed")

// InlineRunner executes tasks synchronously on the calling goroutine.
// The first invocation of a task evaluates its init; later invocations
// reuse the memoized work function. Every result is wrapped in an
// already-resolved future so callers see the same shape as with
// ThreadedRunner.
type InlineRunner struct {
	closed atomic.Bool
}

// NewInlineRunner creates an inline runner.
func NewInlineRunner() *InlineRunner {
	return &InlineRunner{}
}

// Invoke implements Runner.
func (r *InlineRunner) Invoke(ctx context.Context, t *Task, input any) *Future {
	if r.closed.Load() {
		return Failed(ErrRunnerClosed)
	}
	fn, err := t.Work()
	if err != nil {
		return Failed(err)
	}
	v, err := fn(ctx, input)
	if err != nil {
		return Failed(err)
	}
	return Resolved(v)
}

// Close implements Runner.
func (r *InlineRunner) Close() error {
	r.closed.Store(true)
	return nil
}
