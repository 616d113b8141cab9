package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
// password; callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports bad input. Fields maps JSON field paths to
// messages; Message is used for single, form-level failures.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation: " + e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Invalid builds a ValidationError for field-level failures.
func Invalid(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "Validation failed", Fields: fields}
}

// InvalidField builds a ValidationError for a single field.
func InvalidField(field, msg string) *ValidationError {
	return Invalid(map[string]string{field: msg})
}

// AuthorizationError means the caller is authenticated but not allowed.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return "forbidden: " + e.Message }

// NotFoundError means the named resource does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// StateError means the request conflicts with the resource's current state.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return "state: " + e.Message }

// PaymentProviderError wraps a failed call to the payment provider. Detail
// holds the provider's response body, or the transport error text.
type PaymentProviderError struct {
	Op     string
	Detail string
	Err    error
}

func (e *PaymentProviderError) Error() string {
	return fmt.Sprintf("payment provider %s: %v", e.Op, e.Err)
}

func (e *PaymentProviderError) Unwrap() error { return e.Err }
