// Package apperrors defines the error kinds shared by the intake clients,
// the check-in workflow and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is a normal negative lookup result, not a failure.
	ErrNotFound = errors.New("not found")
	// ErrSpeechUnavailable means no speech recognizer is configured.
	ErrSpeechUnavailable = errors.New("speech recognition is not supported on this server")
	// ErrConflict is returned when a create-only write hits an existing key.
	ErrConflict = errors.New("already exists")
	// ErrCapacity means a bounded in-memory resource is full.
	ErrCapacity = errors.New("too many open sessions, please try again later")
)

// ValidationError reports user input that must be corrected before any remote call.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// Validation builds a ValidationError for the given fields.
func Validation(message string, fields ...string) error {
	return &ValidationError{Fields: fields, Message: message}
}

// StoreError wraps any persistence or lookup failure. Op names the failed step
// for diagnostics; users only ever see a generic notice.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError unless it is nil or already one.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// InvalidTransitionError is returned when a workflow step is requested from a
// state that does not allow it, including while a call is still in flight.
type InvalidTransitionError struct {
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Action, e.From)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStore reports whether err is a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}
