// Package task provides a small unit-of-work abstraction with two
// interchangeable execution modes.
//
// A Task couples a name, a list of dependency tasks and a one-time init
// function. The init function runs at most once for the lifetime of the
// process, lazily on first invocation, after all dependency tasks have been
// resolved the same way. Invoking a Task through a Runner always yields a
// *Future, so callers never branch on the execution mode.
//
// Two Runner implementations exist:
//
//   - InlineRunner executes work synchronously on the calling goroutine and
//     returns already-resolved futures.
//   - ThreadedRunner executes work on dedicated worker goroutines and
//     returns futures that resolve asynchronously.
//
// Which runner is used is an explicit configuration choice, never a runtime
// capability probe, so behavior stays deterministic and testable.
package task
