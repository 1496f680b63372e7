// Package apperr defines the error taxonomy shared by the bot core.
// NotFound and Validation errors are recovered by the state machine, External
// errors trigger a transition fallback, StateConflict errors are precondition
// violations reported back to the caller.
package apperr

import (
	"errors"
	"fmt"
)

// NotFoundError reports a missing item, line, order or category
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError reports bad input such as a non-positive quantity
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ExternalError wraps a failed or timed-out collaborator call
type ExternalError struct {
	Collaborator string
	Err          error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Collaborator, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

func External(collaborator string, err error) error {
	return &ExternalError{Collaborator: collaborator, Err: err}
}

// StateConflictError reports an operation the current state cannot satisfy
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string {
	return "state conflict: " + e.Reason
}

func Conflict(format string, args ...any) error {
	return &StateConflictError{Reason: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsExternal(err error) bool {
	var target *ExternalError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *StateConflictError
	return errors.As(err, &target)
}
