// Package apperrors defines the error taxonomy shared by services and the
// HTTP layer: field-keyed validation errors, missing entities, and stock
// conflicts. Anything outside this taxonomy is treated as an internal
// failure and must not leak detail to clients.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
)

// FieldErrors maps an input field name to its human-readable messages.
// Serialized as {"errors": {field: [messages]}}.
type FieldErrors map[string][]string

// ValidationError is a client-correctable input failure.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %s: %s", keys[0], e.Fields[keys[0]][0])
}

// NewValidation returns an empty validation error ready for Add calls.
func NewValidation() *ValidationError {
	return &ValidationError{Fields: FieldErrors{}}
}

// Invalid builds a single-field validation error.
func Invalid(field, format string, args ...any) *ValidationError {
	v := NewValidation()
	v.Add(field, format, args...)
	return v
}

// Add appends a message for the given field.
func (e *ValidationError) Add(field, format string, args ...any) {
	if e.Fields == nil {
		e.Fields = FieldErrors{}
	}
	e.Fields[field] = append(e.Fields[field], fmt.Sprintf(format, args...))
}

// HasErrors reports whether any field carries a message.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// NotFound builds a NotFoundError for the given resource and id.
func NotFound(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientStockError is the business-rule violation raised when a cart
// line requests more units than the product has left.
type InsufficientStockError struct {
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product '%s' does not have enough stock", e.ProductName)
}

// FieldErrors renders the stock conflict the way order validation failures
// are reported, keyed on the items field.
func (e *InsufficientStockError) FieldErrors() FieldErrors {
	return FieldErrors{"items": {e.Error() + "."}}
}

// AsValidation extracts a *ValidationError if err carries one.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

// AsNotFound extracts a *NotFoundError if err carries one.
func AsNotFound(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	ok := errors.As(err, &nf)
	return nf, ok
}

// AsInsufficientStock extracts an *InsufficientStockError if err carries one.
func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var is *InsufficientStockError
	ok := errors.As(err, &is)
	return is, ok
}
