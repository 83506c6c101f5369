package application

import (
	"errors"
	"fmt"

	"shelver/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrSourceNotFound         = errors.New("source not found")
	ErrDestinationNotWritable = errors.New("destination not writable")
	ErrNameCollision          = errors.New("name collision")
	ErrJournalWrite           = errors.New("journal write failure")
	ErrBlocked                = errors.New("blocked by rule")
	ErrTooManyFiles           = errors.New("too many files")
	ErrModified               = errors.New("file modified since it was moved")
	ErrConfirmationRequired   = errors.New("confirmation required")
	ErrNotFound               = errors.New("not found")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MoveError represents a failure to move a single file
type MoveError struct {
	Source      string
	Destination string
	Reason      string
	Err         error // one of the sentinels above, or the underlying cause
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("cannot move %s to %s: %s", e.Source, e.Destination, e.Reason)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}
