// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Lifecycle conflicts (409)
	CodeInvalidState     = "INVALID_STATE"
	CodeAlreadyAllocated = "ALREADY_ALLOCATED"
	CodeAlreadyApproved  = "ALREADY_APPROVED"
	CodeJobClosed        = "JOB_CLOSED"

	// Business rule violations (422)
	CodeNotApproved          = "NOT_APPROVED"
	CodeInsufficientQuantity = "INSUFFICIENT_QUANTITY"
	CodeNotFullyApproved     = "NOT_FULLY_APPROVED"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict    = "CONFLICT"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type for the ledger.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInvalidState is returned when an operation is illegal for the current lifecycle state.
func NewInvalidState(entity string, id any, state string) *AppError {
	return &AppError{
		Code:       CodeInvalidState,
		Message:    fmt.Sprintf("%s is %s", entity, state),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id, "state": state},
	}
}

// NewNotApproved is returned when stock is used before it was approved or while inactive.
func NewNotApproved(batchID any, approval, status string) *AppError {
	return &AppError{
		Code:       CodeNotApproved,
		Message:    "Batch is not approved and active",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"batch_id":        batchID,
			"approval_status": approval,
			"status":          status,
		},
	}
}

// NewAlreadyAllocated is returned when a batch is already bound to a job.
func NewAlreadyAllocated(batchID, jobID any) *AppError {
	return &AppError{
		Code:       CodeAlreadyAllocated,
		Message:    "Batch is already allocated",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"batch_id": batchID, "job_id": jobID},
	}
}

// NewAlreadyApproved is returned when a job tab was approved before.
func NewAlreadyApproved(jobID any, category string) *AppError {
	return &AppError{
		Code:       CodeAlreadyApproved,
		Message:    fmt.Sprintf("Tab %s is already approved", category),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"job_id": jobID, "category": category},
	}
}

// NewJobClosed is returned for any mutation against a closed job.
func NewJobClosed(jobID any) *AppError {
	return &AppError{
		Code:       CodeJobClosed,
		Message:    "Job is closed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"job_id": jobID},
	}
}

// NewInsufficientQuantity creates a batch shortage error
func NewInsufficientQuantity(batchID any, requested, remaining int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientQuantity,
		Message:    "Insufficient batch quantity",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"batch_id":  batchID,
			"requested": requested,
			"remaining": remaining,
		},
	}
}

// NewNotFullyApproved is returned when closing a job with unapproved tabs.
func NewNotFullyApproved(jobID any, pending []string) *AppError {
	return &AppError{
		Code:       CodeNotFullyApproved,
		Message:    "Job tabs are not fully approved",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"job_id": jobID, "pending": pending},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewIdempotencyConflict creates error when operation is already in progress
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request (different user/operation/body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}
