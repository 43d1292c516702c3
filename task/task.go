package task

import (
	"context"
	"fmt"
	"sync"
)

// WorkFunc is the callable produced by a Task's init function. It receives
// the per-invocation input and returns the result.
type WorkFunc func(ctx context.Context, input any) (any, error)

// InitFunc builds a task's work value from its resolved dependencies.
// deps holds the resolved values of the dependency tasks, in declaration
// order. The returned value is usually a WorkFunc; any other value is
// treated as a constant and wrapped in a WorkFunc that ignores its input.
type InitFunc func(deps []any) (any, error)

// Task is a named unit of work with memoized one-time initialization.
//
// The init function runs at most once per process, lazily on the first
// invocation, after every dependency task has been resolved the same way.
// Resolution is identical in both execution modes; only where the work
// function runs differs.
type Task struct {
	name string
	deps []*Task
	init InitFunc

	once    sync.Once
	value   any
	initErr error
}

// Define creates a task. deps may be nil. init must not be nil.
func Define(name string, deps []*Task, init InitFunc) *Task {
	if init == nil {
		panic("task: Define requires an init function")
	}
	return &Task{name: name, deps: deps, init: init}
}

// Name returns the task's name.
func (t *Task) Name() string {
	return t.name
}

// resolve runs init exactly once, resolving dependencies first.
func (t *Task) resolve() (any, error) {
	t.once.Do(func() {
		depValues := make([]any, len(t.deps))
		for i, dep := range t.deps {
			v, err := dep.resolve()
			if err != nil {
				t.initErr = fmt.Errorf("task %q: dependency %q: %w", t.name, dep.name, err)
				return
			}
			depValues[i] = v
		}
		t.value, t.initErr = t.init(depValues)
	})
	return t.value, t.initErr
}

// Work resolves the task and returns its work function. A non-function
// init value is wrapped in a WorkFunc returning that value.
func (t *Task) Work() (WorkFunc, error) {
	v, err := t.resolve()
	if err != nil {
		return nil, err
	}
	switch fn := v.(type) {
	case WorkFunc:
		return fn, nil
	case func(ctx context.Context, input any) (any, error):
		return fn, nil
	default:
		return func(context.Context, any) (any, error) { return v, nil }, nil
	}
}

// Runner executes tasks. Both implementations honor the same contract:
// Invoke always returns a non-nil *Future, the task's init runs at most
// once, and the future resolves exactly once.
type Runner interface {
	// Invoke schedules one execution of the task with the given input.
	Invoke(ctx context.Context, t *Task, input any) *Future

	// Close releases runner resources. Invoking after Close yields a
	// future resolved with ErrRunnerClosed.
	Close() error
}
