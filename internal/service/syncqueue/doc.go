// Package syncqueue coordinates the offline review pipeline: durable
// enqueueing of rating events, batching of pending events into replay
// journal entries, idempotent settlement after the server responds, and a
// lifecycle event stream for UI and telemetry hookup.
package syncqueue
