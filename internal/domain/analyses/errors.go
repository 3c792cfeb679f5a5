package analyses

import "errors"

var (
	// ErrNotFound is returned by Repository.Get when no record has the id.
	ErrNotFound = errors.New("analysis not found")

	// ErrStorageUnavailable wraps failures of a durable backing store.
	ErrStorageUnavailable = errors.New("analysis storage unavailable")

	// ErrInvalidDraft is returned when a draft violates the record invariants.
	ErrInvalidDraft = errors.New("invalid analysis draft")
)
