// Package validation checks task input before anything is sent to the backend.
package validation

import (
	"errors"
	"strings"
)

// ErrorType classifies a field error.
type ErrorType string

const (
	ErrorTypeRequired      ErrorType = "required"
	ErrorTypeInvalidLength ErrorType = "invalid_length"
	ErrorTypeInvalidFormat ErrorType = "invalid_format"
)

// FieldError is a validation failure for a single input field.
type FieldError struct {
	Field   string
	Type    ErrorType
	Message string
}

func (fe FieldError) Error() string {
	return fe.Message
}

// ValidationError collects field errors in the order they were found.
type ValidationError struct {
	Errors []FieldError
}

// Error returns the first field message, which is what the user sees
// next to the form.
func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "validation error"
	}
	return ve.Errors[0].Message
}

// HasErrors reports whether any field failed.
func (ve *ValidationError) HasErrors() bool {
	return len(ve.Errors) > 0
}

// Add appends a field error.
func (ve *ValidationError) Add(field string, typ ErrorType, message string) {
	ve.Errors = append(ve.Errors, FieldError{Field: field, Type: typ, Message: message})
}

// Field returns the error recorded for field, if any.
func (ve *ValidationError) Field(field string) (FieldError, bool) {
	for _, fe := range ve.Errors {
		if fe.Field == field {
			return fe, true
		}
	}
	return FieldError{}, false
}

// Messages returns every field message joined with "; ".
func (ve *ValidationError) Messages() string {
	msgs := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
