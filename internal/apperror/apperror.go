// Package apperror defines the error kinds the services return and the HTTP
// layer maps to status codes.
//
// Every client-facing failure is an *AppError. Its Message is what the
// client reads in the response envelope; its Err is one of the kind
// sentinels below, which response.StatusFor turns into a status. Anything
// that is not an *AppError is treated as an upstream failure and never shown
// to the client.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is; the text is for logs only.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// AppError is a failure the client is allowed to see.
type AppError struct {
	Err     error  // one of the kinds above
	Message string // sent to the client verbatim
	Field   string // request field at fault, for validation errors
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New returns an AppError of the given kind with a client-facing message.
func New(kind error, message string) *AppError {
	return &AppError{Err: kind, Message: message}
}

// NotFound reports a missing record. Services usually replace it with a
// canned message before it reaches the client.
func NotFound(resource, id string) *AppError {
	return New(ErrNotFound, fmt.Sprintf("%s %s does not exist", resource, id))
}

// Conflict reports a unique-constraint clash on a resource.
func Conflict(resource, key string) *AppError {
	return New(ErrConflict, fmt.Sprintf("%s %s already exists", resource, key))
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// Required is the validation error for a missing field: "name" is required.
func Required(field string) *AppError {
	return ValidationFailed(field, fmt.Sprintf("%q is required", field))
}

// OneOf is the validation error for a value outside an enumeration:
// "role" must be one of [user, admin].
func OneOf(field string, allowed ...string) *AppError {
	return ValidationFailed(field, fmt.Sprintf("%q must be one of [%s]", field, strings.Join(allowed, ", ")))
}

func Forbidden(message string) *AppError {
	return New(ErrForbidden, message)
}

func Unauthenticated(message string) *AppError {
	return New(ErrUnauthenticated, message)
}
