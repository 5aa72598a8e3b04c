// Package domainerrors provides coded errors for crewbase services.
//
// Services return these so transports can translate outcomes to HTTP statuses
// without string matching, and so tests can assert on failure classes instead
// of messages. Infrastructure layers return pkg/platform/sentinel errors;
// services wrap those into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and caller retry decisions.
type Code string

const (
	// CodeInvalidInput covers malformed or out-of-range caller input,
	// including configuration values that fail validation.
	CodeInvalidInput Code = "invalid_input"
	// CodeUnauthenticated covers credentials or session artifacts that fail
	// verification. Never retried; the caller must sign in again.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeForbidden covers a valid identity with no recognized role, or an
	// operation outside the caller's tier.
	CodeForbidden Code = "forbidden"
	// CodeNotFound covers absent records. At the invitation redemption
	// boundary this deliberately conflates never-existed, consumed, and
	// expired so tokens cannot be enumerated.
	CodeNotFound Code = "not_found"
	// CodeConflict covers lost races on conditional writes, e.g. a second
	// concurrent consume of the same invitation.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation covers illegal state transitions.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnavailable covers unreachable infrastructure (store, identity
	// authority). Distinct from authentication failure; eligible for
	// caller-directed retry with backoff.
	CodeUnavailable Code = "unavailable"
	// CodeInternal covers everything else.
	CodeInternal Code = "internal"
)

// Error carries a code, a caller-safe message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates an underlying error with a code and message. Returns nil if
// err is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost caller-safe message, or a generic one.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to the HTTP status used by the JSON error envelope.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
