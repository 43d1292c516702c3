package task

import (
	"context"
	"sync"
)

// Future is a deferred result. It is completed exactly once and may be
// awaited any number of times from any goroutine.
type Future struct {
	done chan struct{}
	once sync.Once

	// value and err are written before done is closed and never mutated
	// afterwards, so reads after <-done need no lock.
	value any
	err   error
}

// newFuture creates an unresolved future.
func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future that already holds the given value.
func Resolved(value any) *Future {
	f := newFuture()
	f.complete(value, nil)
	return f
}

// Failed returns a future that already holds the given error.
func Failed(err error) *Future {
	f := newFuture()
	f.complete(nil, err)
	return f
}

// complete resolves the future. Subsequent calls are no-ops.
func (f *Future) complete(value any, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Await blocks until the future resolves or the context is canceled.
// It returns the task result or the first error encountered.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel that is closed when the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// TryGet returns the result without blocking. The bool reports whether the
// future has resolved.
func (f *Future) TryGet() (any, error, bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		return nil, nil, false
	}
}
