package store

import (
	"errors"
	"fmt"
)

// Common store errors.
var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrDuplicate indicates a session with the same id already exists.
	ErrDuplicate = errors.New("session already exists")

	// ErrCorrupt indicates a malformed on-disk record.
	ErrCorrupt = errors.New("corrupt session record")

	// ErrArchived indicates a write against an archived session; there
	// is no transition out of Archived.
	ErrArchived = errors.New("session is archived")
)

// NotFoundError wraps ErrNotFound with the session id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// DuplicateError wraps ErrDuplicate with the colliding id.
type DuplicateError struct {
	ID    string
	Agent string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("session already exists: %s (agent %s)", e.ID, e.Agent)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// CorruptError wraps ErrCorrupt with the record path and cause. The
// affected record is unusable; other records are untouched.
type CorruptError struct {
	ID    string
	Path  string
	Cause error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt session record %s: %v", e.ID, e.Cause)
}

func (e *CorruptError) Unwrap() error {
	return ErrCorrupt
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate checks if an error is a duplicate session error.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
