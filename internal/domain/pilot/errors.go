package pilot

import (
	"fmt"
	"strings"
)

// ValidationError carries every problem found in a product intake.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// PersistenceError wraps a write-model or read-model store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// fieldError is a single human readable validation message.
type fieldError string

func (e fieldError) Error() string { return string(e) }

func fieldErrorf(format string, args ...any) error {
	return fieldError(fmt.Sprintf(format, args...))
}
