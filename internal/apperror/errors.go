// Package apperror defines the error kinds surfaced by the ledger and the challan issuer.
// Every structured error unwraps to one sentinel so callers can branch with errors.Is
// and read the details with errors.As.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyConsumed   = errors.New("movement records already consumed")
	ErrConflict          = errors.New("concurrent update conflict")
	ErrAlreadyCancelled  = errors.New("challan already cancelled")
)

type ValidationError struct {
	Field  string
	Reason string
	// Fields holds every failing field when the error comes from struct validation.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
		}
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

type InsufficientStockError struct {
	BoxID     string
	Color     string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for box %s colour %q: available %d, requested %d",
		e.BoxID, e.Color, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

type AlreadyConsumedError struct {
	IDs []string
}

func (e *AlreadyConsumedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAlreadyConsumed.Error(), strings.Join(e.IDs, ", "))
}

func (e *AlreadyConsumedError) Unwrap() error {
	return ErrAlreadyConsumed
}

// ConflictError is retryable. It keeps the underlying cause for logging.
type ConflictError struct {
	Op  string
	Err error
}

func (e *ConflictError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrConflict.Error())
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrConflict.Error(), e.Err)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func Conflict(op string, err error) error {
	return &ConflictError{Op: op, Err: err}
}

// IsRetryable reports whether err is a concurrency conflict worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
