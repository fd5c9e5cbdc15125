// Package errors provides coded domain errors for the bookfinder session service.
//
// Usage:
//
//	// In the query builder - return typed errors
//	if _, err := strconv.Atoi(raw); err != nil {
//	    return errors.InvalidPageNumber("pageFrom", raw)
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrInvalidPageNumber) {
//	    // surface to the user, keep the other fields
//	}
//
//	// Or switch on the Code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeEndpointFailure:
//	        // keep previous results, show the error indicator
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION"
	CodeInternal          Code = "INTERNAL"
	CodeMalformedTaxonomy Code = "MALFORMED_TAXONOMY"
	CodeInvalidPageNumber Code = "INVALID_PAGE_NUMBER"
	CodeEndpointFailure   Code = "ENDPOINT_FAILURE"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeInvalidPageNumber:
		return http.StatusBadRequest
	case CodeMalformedTaxonomy, CodeEndpointFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
	ErrMalformedTaxonomy = &Error{Code: CodeMalformedTaxonomy, Message: "malformed taxonomy"}
	ErrInvalidPageNumber = &Error{Code: CodeInvalidPageNumber, Message: "invalid page number"}
	ErrEndpointFailure   = &Error{Code: CodeEndpointFailure, Message: "search endpoint failure"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// MalformedTaxonomyf creates a malformed taxonomy error with formatted message.
func MalformedTaxonomyf(format string, args ...any) *Error {
	return &Error{Code: CodeMalformedTaxonomy, Message: fmt.Sprintf(format, args...)}
}

// InvalidPageNumber reports a page field that is neither empty nor a base-10 integer.
// Details carry the field name so the caller can point the user at it.
func InvalidPageNumber(field, value string) *Error {
	return &Error{
		Code:    CodeInvalidPageNumber,
		Message: fmt.Sprintf("%s must be a whole number, got %q", field, value),
		Details: map[string]string{"field": field, "value": value},
	}
}

// EndpointFailure wraps an error returned by the external search or taxonomy endpoint.
func EndpointFailure(err error) *Error {
	return &Error{Code: CodeEndpointFailure, Message: "search endpoint failure", cause: err}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
