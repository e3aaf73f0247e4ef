package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrStorage      = errors.New("storage error")
	ErrValidation   = errors.New("validation failed")
)

// Error codes surfaced to API clients.
const (
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
	CodeStorage    = "STORAGE_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NotFoundError is the hard failure for a missing referenced entity.
func NotFoundError(message string) error {
	return NewAppError(CodeNotFound, message, ErrNotFound)
}

// ValidationFailed is the hard failure for malformed caller input.
func ValidationFailed(message string, cause error) error {
	if cause == nil {
		cause = ErrValidation
	} else {
		cause = fmt.Errorf("%w: %w", ErrValidation, cause)
	}
	return NewAppError(CodeValidation, message, cause)
}

// StorageFailure is the hard failure for an unreachable or rejecting durable store.
func StorageFailure(message string, cause error) error {
	if cause == nil {
		cause = ErrStorage
	} else {
		cause = fmt.Errorf("%w: %w", ErrStorage, cause)
	}
	return NewAppError(CodeStorage, message, cause)
}

// HTTPStatus maps an error class to the response status used at the API boundary.
func HTTPStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, ErrStorage):
		return http.StatusServiceUnavailable, CodeStorage
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// PublicMessage returns the client-safe message of an AppError, or a generic one.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != CodeInternal && appErr.Code != CodeStorage {
		return appErr.Message
	}
	if errors.Is(err, ErrStorage) {
		return "storage unavailable"
	}
	return "internal error"
}
