package task

import (
	"context"
	"runtime"
	"sync"
)

// job is one scheduled task execution.
type job struct {
	ctx   context.Context
	task  *Task
	input any
	fut   *Future
}

// ThreadedRunner executes tasks on dedicated worker goroutines. Inputs are
// handed to the worker by reference (large buffers are moved, not copied)
// and results come back through the returned future.
//
// ThreadedRunner is safe for concurrent use.
type ThreadedRunner struct {
	jobs chan job

	// mu guards closed so Invoke never sends on a closed channel.
	mu     sync.RWMutex
	closed bool

	wg sync.WaitGroup
}

// NewThreadedRunner creates a runner with the given number of workers.
// workers <= 0 selects runtime.NumCPU().
func NewThreadedRunner(workers int) *ThreadedRunner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	r := &ThreadedRunner{
		jobs: make(chan job, workers*2),
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

// worker consumes jobs until the job channel is closed.
func (r *ThreadedRunner) worker() {
	defer r.wg.Done()
	for j := range r.jobs {
		if err := j.ctx.Err(); err != nil {
			j.fut.complete(nil, err)
			continue
		}
		fn, err := j.task.Work()
		if err != nil {
			j.fut.complete(nil, err)
			continue
		}
		v, err := fn(j.ctx, j.input)
		j.fut.complete(v, err)
	}
}

// Invoke implements Runner.
func (r *ThreadedRunner) Invoke(ctx context.Context, t *Task, input any) *Future {
	fut := newFuture()

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		fut.complete(nil, ErrRunnerClosed)
		return fut
	}
	select {
	case r.jobs <- job{ctx: ctx, task: t, input: input, fut: fut}:
	case <-ctx.Done():
		fut.complete(nil, ctx.Err())
	}
	r.mu.RUnlock()
	return fut
}

// Close implements Runner. It stops accepting new work, waits for queued
// jobs to finish and releases the workers.
func (r *ThreadedRunner) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()
	r.wg.Wait()
	return nil
}
