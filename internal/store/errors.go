package store

import "errors"

// Error taxonomy of the content store. Everything here is recoverable
// or self-healing; no store error terminates the hosting process.
var (
	// ErrNotFound reports a lookup miss, surfaced to the caller.
	ErrNotFound = errors.New("clipstore: not found")

	// ErrPayloadTooLarge reports a capture rejected for size.
	ErrPayloadTooLarge = errors.New("clipstore: payload too large")

	// ErrStorageIO reports a disk failure that survived one retry. The
	// store keeps serving reads in this degraded mode.
	ErrStorageIO = errors.New("clipstore: storage io failure")

	// ErrInconsistent tags refcount and orphan mismatches found during
	// startup or reconciliation. Always auto-repaired and logged.
	ErrInconsistent = errors.New("clipstore: inconsistent store state")
)
