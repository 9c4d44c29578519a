// Package errs holds the error taxonomy shared by the store, the sync queue
// and the HTTP layer. Callers match with errors.Is / errors.As.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the referenced team, backup or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is matched by every ValidationError and ValidationErrors value.
	ErrValidation = errors.New("validation failed")

	// ErrStorage is matched by every StorageError.
	ErrStorage = errors.New("storage failure")

	// ErrRegistrationClosed is returned by public registration while the window is closed.
	ErrRegistrationClosed = errors.New("registration closed")

	// ErrTeamLimitReached is returned by public registration when maxTeams is reached.
	ErrTeamLimitReached = errors.New("team limit reached")

	// ErrUnauthorized indicates a failed admin password check or an invalid session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConfirmationRequired is returned when a destructive call lacks explicit confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrDrainInProgress is returned when a drain is triggered while another one runs.
	ErrDrainInProgress = errors.New("drain in progress")

	// ErrSinkNotConfigured indicates the outbound endpoint has not been set up.
	ErrSinkNotConfigured = errors.New("sink not configured")
)

// ValidationError is a single user-correctable problem with one input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrors collects every offending field of one input.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Is(target error) bool { return target == ErrValidation }

// Field returns the error reported for field, or nil.
func (v ValidationErrors) Field(field string) *ValidationError {
	for _, e := range v {
		if e.Field == field {
			return e
		}
	}
	return nil
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, &ValidationError{Field: field, Message: message})
}

// Err returns v as an error, or nil when empty.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// StorageError reports a failed durable read or write.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// SyncDeliveryError reports a failed outbound delivery attempt.
// It never reaches end users; it is logged and reflected in the team's sync state.
type SyncDeliveryError struct {
	TeamID  int64
	Attempt int
	Err     error
}

func (e *SyncDeliveryError) Error() string {
	return fmt.Sprintf("deliver team %d (attempt %d): %v", e.TeamID, e.Attempt, e.Err)
}

func (e *SyncDeliveryError) Unwrap() error { return e.Err }

// NotFound wraps ErrNotFound with the kind and identifier of the missing entity.
func NotFound(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, ErrNotFound)
}
