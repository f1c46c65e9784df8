// Package apperrors defines the workflow error taxonomy. Callers branch with
// errors.Is; the HTTP boundary maps each kind to a status code.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing required input. Recoverable:
	// the user corrects the payload and retries.
	ErrValidation = errors.New("validation error")

	// ErrForbidden marks a failed role or ownership guard. Not retryable
	// without different credentials.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState marks an action attempted against a request in an
	// incompatible lifecycle state. Surfaced verbatim, never retried.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrDuplicateApproval marks a second decision by the same approver.
	ErrDuplicateApproval = errors.New("duplicate approval")

	// ErrDuplicateSubmission marks a second receipt for the same request.
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrNotFound marks an unknown identifier.
	ErrNotFound = errors.New("not found")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// Forbiddenf wraps ErrForbidden with a formatted detail message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrForbidden}, args...)...)
}

// InvalidStatef wraps ErrInvalidState with a formatted detail message.
func InvalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidState}, args...)...)
}
