package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports input that violates a precondition. Nothing is mutated
// or constructed when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unresolvable reference (catalog item, cart line, address, order).
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

var (
	ErrEmptyCart            = &ValidationError{Field: "cart", Reason: "cart is empty, nothing to order"}
	ErrQuantityBelowMinimum = &ValidationError{Field: "quantity", Reason: "quantity must be at least 1"}
	ErrQuantityAboveMaximum = &ValidationError{Field: "quantity", Reason: "quantity exceeds the per-line maximum"}
	ErrIllegalTransition    = errors.New("illegal order status transition")
)

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func NewNotFoundError(kind string, id any) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: fmt.Sprint(id)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
