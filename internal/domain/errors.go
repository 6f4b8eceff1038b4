package domain

import "errors"

var (
	// ErrValidation marks malformed input or state.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing persistent record.
	ErrNotFound = errors.New("not found")
	// ErrConfig marks a configuration problem the caller must fix, such as a
	// missing endpoint URL. Configuration errors are never queued for retry.
	ErrConfig = errors.New("configuration error")
)
