// Package executor runs the compute associated with a task type out of
// band from the request path. Executors are pure functions selected by
// task type through a static registry; the worker pool consumes jobs
// from the broker, runs the matching executor, persists the outcome to
// the result backend and the task store, and emits a completion event.
package executor
