// Package srs implements the spaced repetition scheduling core: a pure,
// deterministic algorithm that maps a schedule snapshot and a review grade to
// the next snapshot, and a scheduler that owns rating mapping, due/new
// predicates, and a memoizing cache of algorithm instances keyed by deck
// tuning configuration.
package srs
