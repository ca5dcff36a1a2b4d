package platformerrors

import (
	"errors"
	"fmt"
)

// Layer identifies where an error was raised or wrapped.
type Layer string

const (
	LayerHandler        Layer = "handler"
	LayerDomain         Layer = "domain"
	LayerRepository     Layer = "repository"
	LayerInfrastructure Layer = "infrastructure"
)

// ErrorType classifies an error for transport mapping and retry semantics.
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeConsentRequired ErrorType = "consent_required"
	ErrorTypeRateLimited     ErrorType = "rate_limited"
	ErrorTypeUnavailable     ErrorType = "unavailable"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeInternal        ErrorType = "internal"
)

// Error is the platform error carried across layers. Code is a stable
// machine-readable identifier surfaced in API responses.
type Error struct {
	Layer   Layer
	Type    ErrorType
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Layer, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Layer, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a typed platform error.
func NewError(layer Layer, typ ErrorType, code, message string, err error) *Error {
	return &Error{Layer: layer, Type: typ, Code: code, Message: message, Err: err}
}

// AsError wraps err with layer context. If err is already a platform error its
// type and code are preserved so classification survives wrapping.
func AsError(layer Layer, err error, message string) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return &Error{Layer: layer, Type: pe.Type, Code: pe.Code, Message: message, Err: err}
	}
	return &Error{Layer: layer, Type: ErrorTypeInternal, Message: message, Err: err}
}

// TypeOf returns the error type of err, ErrorTypeInternal when unclassified.
func TypeOf(err error) ErrorType {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeInternal
}

// CodeOf returns the stable error code of err, empty when unclassified.
func CodeOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsType reports whether err carries the given error type.
func IsType(err error, typ ErrorType) bool {
	return TypeOf(err) == typ
}
