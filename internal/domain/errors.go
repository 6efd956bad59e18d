// Package domain errors represent business-level failures, not transport errors.
// Adapters map them onto HTTP status codes (or exit codes in the CLI).
package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested quote does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a quote or query argument broke a business rule.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates a required dependency, such as the remote quote source, is unavailable.
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError reports a quote ID that is not in the catalog.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return "quote not found"
	}

	return fmt.Sprintf("quote with id %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError returns a not found error for the quote with the given id.
func NewNotFoundError(id int64) error {
	return &NotFoundError{ID: id}
}

// ValidationError is a single rule broken by one field. Field is empty when
// the rule concerns the whole quote.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error that records the
// rejected value for logging.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ValidationErrors reports every field of one quote that broke a rule.
// errors.As finds the first *ValidationError through it.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		if v.Field == "" {
			parts[i] = v.Message
		} else {
			parts[i] = v.Field + ": " + v.Message
		}
	}

	return "validation failed for " + strings.Join(parts, "; ")
}

func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, v := range e {
		errs[i] = v
	}

	return errs
}

// Fields maps each named field to its message. Later failures of the same
// field are dropped.
func (e ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(e))
	for _, v := range e {
		if _, seen := fields[v.Field]; v.Field != "" && !seen {
			fields[v.Field] = v.Message
		}
	}

	return fields
}

// JoinValidation collapses errs into nil, the single error, or a
// ValidationErrors in the given order.
func JoinValidation(errs ...*ValidationError) error {
	errs = slices.DeleteFunc(errs, func(e *ValidationError) bool { return e == nil })

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return ValidationErrors(errs)
	}
}

// ValidationFromFields builds a validation error from a field to message map,
// sorted by field so the result is stable.
func ValidationFromFields(fields map[string]string) error {
	errs := make([]*ValidationError, 0, len(fields))
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		errs = append(errs, &ValidationError{Field: field, Message: fields[field]})
	}

	return JoinValidation(errs...)
}

// UnavailableError reports a dependency that could not serve the request.
// Cause, when set, stays reachable through errors.Is and errors.As.
type UnavailableError struct {
	Service string
	Reason  string
	Cause   error
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("service %q unavailable", e.Service)
	}

	return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
}

func (e *UnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnavailable}
	}

	return []error{ErrUnavailable, e.Cause}
}

// NewUnavailableError creates an unavailable error with a reason.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// NewUnavailableErrorWithCause is NewUnavailableError keeping the
// underlying failure in the chain.
func NewUnavailableErrorWithCause(service, reason string, cause error) error {
	return &UnavailableError{Service: service, Reason: reason, Cause: cause}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
