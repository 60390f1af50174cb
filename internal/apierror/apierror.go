// Package apierror provides the error taxonomy shared by services and
// handlers, plus the standardized response envelopes. All errors returned to
// clients go through this package so internal details (stack traces, DB
// errors) never leak.
package apierror

import "net/http"

// Kind buckets an error into one of the retry/response classes.
type Kind int

const (
	// KindValidation — malformed input, rejected before any write. Safe to
	// retry after correcting the request.
	KindValidation Kind = iota
	// KindNotFound — the referenced entity does not exist.
	KindNotFound
	// KindStateConflict — the entity is not in the state the operation
	// requires (completing a COMPLETED sale, closing a CLOSED session).
	// Not retryable without changing the request.
	KindStateConflict
	// KindResourceConflict — a concurrent condition blocks the operation
	// (insufficient stock, register already open). Retryable once it clears.
	KindResourceConflict
	// KindIntegrity — an invariant the isolation level should have protected
	// was violated (post-decrement negative stock). A defect signal, surfaced
	// as an internal error.
	KindIntegrity
)

// Error is the typed error services return. When raised inside a transaction
// it causes full rollback — partial application is never acceptable.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string { return e.Detail }

// HTTPStatus maps the kind to a response code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict, KindResourceConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(detail string) *Error       { return &Error{Kind: KindValidation, Detail: detail} }
func NotFound(detail string) *Error         { return &Error{Kind: KindNotFound, Detail: detail} }
func StateConflict(detail string) *Error    { return &Error{Kind: KindStateConflict, Detail: detail} }
func ResourceConflict(detail string) *Error { return &Error{Kind: KindResourceConflict, Detail: detail} }
func Integrity(detail string) *Error        { return &Error{Kind: KindIntegrity, Detail: detail} }

// APIError is the canonical envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError { return &APIError{Detail: msg} }

// ValidationError wraps multiple field errors from request binding.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}
