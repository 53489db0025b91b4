/*
errors.go - Centralized error taxonomy for the records engine

PURPOSE:
  All error kinds in one place. The UI presents materially different
  remediation text per kind, so every failure leaving the store is one of
  these — never a bare I/O error.

ERROR CATEGORIES:
  1. Validation errors - malformed or missing input fields (pre-persistence)
  2. Not-found errors  - operation targets a nonexistent ID
  3. Locked-file errors - workbook open in another program
  4. Schema errors     - sheet structure unrepairable
  5. Storage errors    - all other I/O failures

USAGE:
  Callers classify with errors.Is / errors.As:

    if errors.Is(err, records.ErrLocked) {
        // tell the user to close the file and retry
    }

SEE ALSO:
  - store/xlsx: produces these errors
  - api: maps each kind to a distinct HTTP response
*/
package records

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when input fields are missing or malformed.
	// Raised before any persistence attempt.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound is returned when an operation targets an ID that does not
	// exist in the store.
	ErrNotFound = errors.New("record not found")

	// ErrLocked is returned when the backing workbook cannot be opened for
	// writing, typically because it is open in another program.
	ErrLocked = errors.New("workbook locked")

	// ErrSchema is returned when a sheet's structure cannot be repaired.
	// Operations on that sheet stay unavailable until the file is fixed.
	ErrSchema = errors.New("sheet schema unrepairable")

	// ErrStorage covers all other I/O failures.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field failed and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: field %q %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies the missing record.
type NotFoundError struct {
	EntityType EntityType
	ID         EntityID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.EntityType, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// LockedFileError distinguishes "file is open elsewhere" from other I/O
// failures. Detection is a pattern match on the underlying failure, not a
// true lock protocol.
type LockedFileError struct {
	Path string
	Err  error
}

func (e *LockedFileError) Error() string {
	return fmt.Sprintf("workbook %s is open in another program; close it and retry: %v", e.Path, e.Err)
}

func (e *LockedFileError) Unwrap() error { return ErrLocked }

// SchemaError reports which sheet could not be repaired.
type SchemaError struct {
	Sheet  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q: %s", e.Sheet, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// StorageError wraps any other I/O failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return ErrStorage }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRecoverable returns true if the caller can fix the condition and retry
// without touching the file by hand.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrLocked)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}
