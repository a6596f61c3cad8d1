package shared

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a missing row.
var ErrNotFound = errors.New("not found")

// ValidationError rejects an operation before any write happens. It is fully
// recoverable: the caller fixes the input and resubmits.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InsufficientStockError rejects a stock exit exceeding the available
// quantity. Raised before the movement row is written.
type InsufficientStockError struct {
	WarehouseID int64
	ProductID   int64
	Requested   float64
	Available   float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: product %d in warehouse %d: requested %.2f, available %.2f",
		e.ProductID, e.WarehouseID, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}

// PartialFailureError marks a multi-step operation where earlier writes
// committed and a later step failed. The committed append-only rows are
// authoritative; a naive retry would double-count, so this must never be
// reported as a plain failure.
type PartialFailureError struct {
	Step string
	Err  error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure at step %q: %v", e.Step, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// IsPartialFailure reports whether err carries a PartialFailureError.
func IsPartialFailure(err error) bool {
	var pfe *PartialFailureError
	return errors.As(err, &pfe)
}

// TransientError wraps backend/network unavailability. Retrying the whole
// operation is safe only when no step has committed yet.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err carries a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
