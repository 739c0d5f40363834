package store

import "errors"

var (
	// ErrNotFound is returned when a habit or goal id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateCompletion is returned when a habit already has a
	// completion on the requested day. State is unchanged.
	ErrDuplicateCompletion = errors.New("already completed")
	// ErrPersistence wraps backend write failures. In-memory state is
	// unchanged when it is returned.
	ErrPersistence = errors.New("failed to save")
	// ErrValidation wraps rejected input.
	ErrValidation = errors.New("invalid input")
)
