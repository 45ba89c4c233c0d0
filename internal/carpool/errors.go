package carpool

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidRole   = errors.New("invalid role")
	ErrUnknownMember = errors.New("unknown member")
)

// FieldError ties a validation failure to the submitted field it came from.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s=%q: %v", e.Field, e.Value, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

// ValidationError rejects a whole save. It matches every sentinel carried by
// its fields under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f
	}
	return errs
}
