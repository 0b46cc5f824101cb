// Package apperr defines the closed set of error kinds the domain services
// return. Handlers map a Kind to an HTTP status exactly once, at the
// response boundary; services never carry status codes themselves.
package apperr

import (
	"errors"
	"fmt"
)

// Kind tags an error with its failure class.
type Kind int

const (
	// Internal is an unexpected failure; the generic 500 class.
	Internal Kind = iota
	// Unauthorized means no valid credential was presented.
	Unauthorized
	// Forbidden means the caller is authenticated but not allowed.
	Forbidden
	// NotFound covers both absent entities and entities outside the
	// caller's tenant scope; the two are indistinguishable on purpose.
	NotFound
	// Conflict covers uniqueness violations, quota limits, and invariant
	// violations such as deleting a tenant's last admin.
	Conflict
	// Invalid is malformed input, reported with field-level messages.
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Invalid:
		return "invalid"
	}
	return "internal"
}

// FieldError is a single validation failure tied to an input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the tagged error returned by domain services. Code is a stable
// machine-readable tag such as SUBDOMAIN_EXISTS; Message is human readable.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with the given kind, stable code, and message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches an underlying cause to an Internal error.
func Wrap(err error, message string) *Error {
	return &Error{Kind: Internal, Code: "INTERNAL", Message: message, Err: err}
}

// Validation builds an Invalid error carrying field-level messages.
func Validation(fields []FieldError) *Error {
	return &Error{
		Kind:    Invalid,
		Code:    "VALIDATION_ERROR",
		Message: "Validation error",
		Fields:  fields,
	}
}

// KindOf extracts the Kind from err, or Internal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// As returns err as *Error when possible, otherwise wraps it as Internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, "Internal server error")
}
