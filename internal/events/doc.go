// Package events carries the review queue lifecycle notifications: enqueue,
// replay, synced and failed. The emitter is an explicit observer registry
// decoupled from any reactive library; events are delivered synchronously to
// the subscribers registered at emit time.
package events
