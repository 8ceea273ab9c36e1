package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error for transport mapping and retry policy.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindForbidden    ErrorKind = "forbidden"
	KindBusinessRule ErrorKind = "business_rule"
	KindExternal     ErrorKind = "external"
)

// Stable error codes surfaced to callers.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeProductNotFound      = "PRODUCT_NOT_FOUND"
	CodeProductUnavailable   = "PRODUCT_UNAVAILABLE"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeOrderNotFound        = "ORDER_NOT_FOUND"
	CodeAffiliateNotFound    = "AFFILIATE_NOT_FOUND"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeNotCancellable       = "NOT_CANCELLABLE"
	CodeInvalidPaymentStatus = "INVALID_PAYMENT_STATUS"
	CodeVersionConflict      = "VERSION_CONFLICT"
	CodeForbidden            = "FORBIDDEN"
	CodeDependencyFailure    = "DEPENDENCY_FAILURE"
)

// Error is a structured domain error carrying a kind for transport mapping
// and a stable code callers can branch on.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(kind ErrorKind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError reports malformed or missing input.
func NewValidationError(format string, args ...any) *Error {
	return newError(KindValidation, CodeValidation, format, args...)
}

// NewNotFoundError reports a missing entity by code.
func NewNotFoundError(code, format string, args ...any) *Error {
	return newError(KindNotFound, code, format, args...)
}

// NewConflictError reports a lost optimistic-concurrency race; the caller
// may retry from fresh state.
func NewConflictError(format string, args ...any) *Error {
	return newError(KindConflict, CodeVersionConflict, format, args...)
}

// NewInvalidTransitionError reports a status move outside the permitted
// graph. It shares the conflict kind with version races: both mean the
// request no longer matches the order's current state.
func NewInvalidTransitionError(from, to OrderStatus) *Error {
	return newError(KindConflict, CodeInvalidTransition, "cannot transition order from %s to %s", from, to)
}

// NewForbiddenError reports an actor lacking the required capability.
func NewForbiddenError(format string, args ...any) *Error {
	return newError(KindForbidden, CodeForbidden, format, args...)
}

// NewBusinessRuleError reports a request that is well-formed but violates a
// business rule, such as cancelling a shipped order.
func NewBusinessRuleError(code, format string, args ...any) *Error {
	return newError(KindBusinessRule, code, format, args...)
}

// NewDependencyError wraps a best-effort collaborator failure.
func NewDependencyError(format string, args ...any) *Error {
	return newError(KindExternal, CodeDependencyFailure, format, args...)
}

// KindOf extracts the kind of a domain error, or empty for foreign errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// CodeOf extracts the stable code of a domain error, or empty for foreign errors.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
