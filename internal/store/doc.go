// Package store defines the task registry contract and the errors shared
// by its implementations. The registry is an abstract key/value store of
// task snapshots; callers choose a concrete backend (in-memory or
// Postgres) at wiring time.
package store
