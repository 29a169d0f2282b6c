package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so wrapped sentinels
// match with errors.Is even when the message was customised.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Error codes of the procurement taxonomy
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInvalidAdjustment   = "INVALID_ADJUSTMENT"
	CodeAlreadyConverted    = "ALREADY_CONVERTED"
	CodeValidation          = "VALIDATION_ERROR"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
	CodeForbidden           = "FORBIDDEN"
	CodeQuantityExceeded    = "QUANTITY_EXCEEDED"
	CodeNoItems             = "NO_ITEMS"
	CodeItemNotFound        = "ITEM_NOT_FOUND"
	CodeInvalidPrecision    = "INVALID_PRECISION"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInvalidAdjustment   = NewDomainError(CodeInvalidAdjustment, "Adjustment would leave stock negative")
	ErrAlreadyConverted    = NewDomainError(CodeAlreadyConverted, "Requisition has already been converted")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Request with this idempotency key was already processed")
	ErrForbidden           = NewDomainError(CodeForbidden, "Not allowed to perform this action")
)

// IsCode reports whether err is a DomainError with the given code
func IsCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// InvalidTransition builds an INVALID_TRANSITION error naming the action and current state
func InvalidTransition(action string, current fmt.Stringer) *DomainError {
	return NewDomainErrorf(CodeInvalidTransition, "Cannot %s in %s status", action, current.String())
}
