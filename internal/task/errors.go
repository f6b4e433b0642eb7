package task

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all store backends. Callers match with errors.Is.
var (
	// ErrNotFound is returned when a task id does not exist in the store.
	ErrNotFound = errors.New("task not found")

	// ErrUnauthorized is returned when the caller does not own the task.
	ErrUnauthorized = errors.New("not authorized for task")
)

// ValidationError reports a rejected create/update payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
