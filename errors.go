package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a ledger operation matches exactly one
// of these through errors.Is, except store and context failures.
var (
	ErrValidation        = errors.New("ledger: validation failed")
	ErrConflict          = errors.New("ledger: conflict")
	ErrInsufficientStock = errors.New("ledger: insufficient stock")
	ErrNotFound          = errors.New("ledger: not found")
)

// Specific causes, wrapped by the typed errors below.
var (
	ErrPlanLimitReached = errors.New("ledger: plan limit reached")
	ErrAlreadyExists    = errors.New("ledger: already exists")
	ErrStoreClosed      = errors.New("ledger: store is closed")
)

// errNoChange lets an operation finish without committing or publishing.
var errNoChange = errors.New("ledger: no change")

// ValidationError reports a request that breaks a structural rule. The
// caller can fix the input and call again.
type ValidationError struct {
	Field   string
	Message string
	Err     error // optional cause, e.g. ErrPlanLimitReached
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "ledger: validation failed: " + e.Message
	}
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ValidationError) Unwrap() error        { return e.Err }

// ConflictError reports a transition the current state does not allow. The
// caller must re-read state before retrying.
type ConflictError struct {
	Entity  string
	ID      string
	Message string
	Err     error
}

func (e *ConflictError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("ledger: conflict on %s: %s", e.Entity, e.Message)
	}
	return fmt.Sprintf("ledger: conflict on %s %s: %s", e.Entity, e.ID, e.Message)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
func (e *ConflictError) Unwrap() error        { return e.Err }

// InsufficientStockError reports a decrement a tracked product cannot cover.
type InsufficientStockError struct {
	ProductID string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("ledger: insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NotFoundError reports an id that does not exist in the caller's tenant.
// Ids owned by another tenant are reported the same way.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("ledger: %s not found", e.Entity)
	}
	return fmt.Sprintf("ledger: %s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity string, id fmt.Stringer) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func conflict(entity string, id fmt.Stringer, format string, args ...any) error {
	return &ConflictError{Entity: entity, ID: id.String(), Message: fmt.Sprintf(format, args...)}
}

func planLimit(resource string, limit int) error {
	return &ValidationError{
		Field:   resource,
		Message: fmt.Sprintf("plan allows at most %d %s", limit, resource),
		Err:     ErrPlanLimitReached,
	}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool { return errors.Is(err, ErrInsufficientStock) }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Kind names the error class of err for logs and metrics: "validation",
// "conflict", "insufficient_stock", "not_found" or "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "validation"
	case IsConflict(err):
		return "conflict"
	case IsInsufficientStock(err):
		return "insufficient_stock"
	case IsNotFound(err):
		return "not_found"
	default:
		return "internal"
	}
}
