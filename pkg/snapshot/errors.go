package snapshot

import "errors"

// The engine's error taxonomy. None of these abort the pipeline:
// callers log and continue, so a sustained failure only ever shows up
// as a gap in published metrics.
var (
	// ErrIngest marks a storage-layer failure on insert. The event is
	// dropped; ingest continues.
	ErrIngest = errors.New("ingest: storage failure, event dropped")

	// ErrView marks a failure computing a derived view. The view
	// returns empty; the analyzer proceeds to the next view.
	ErrView = errors.New("view: computation failed, returning empty view")

	// ErrRollover marks a failure creating or populating the next
	// buffer. The next buffer is recreated empty; inflight state is
	// forfeited for one window.
	ErrRollover = errors.New("rollover: next buffer population failed")

	// ErrInvariantViolation marks a detected inconsistency, e.g. more
	// than two half-events for a (rid, op) with conflicting
	// dimensions. Logged at warn; values are reconciled by the max
	// rule and processing continues.
	ErrInvariantViolation = errors.New("invariant violation: reconciled via max rule")
)
