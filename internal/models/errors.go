package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error codes carried by AppError.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"
	CodePersistence  = "PERSISTENCE_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError is returned when an actor lacks the role a mutation needs.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewRateLimitedError is returned when a cooldown window has not elapsed.
// The message is meant to be shown to the user verbatim.
func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: message,
	}
}

// NewPersistenceError wraps a storage failure without interpreting it.
func NewPersistenceError(err error) *AppError {
	return &AppError{
		Code:    CodePersistence,
		Message: "Persistence failure",
		Err:     err,
	}
}

// ErrorCode returns the AppError code found in err's chain, or "" if none.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given AppError code.
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}

// FromStorage converts a repository error into an AppError. Record-not-found
// becomes NOT_FOUND for the given resource; any other failure is passed on
// unchanged inside a PERSISTENCE_ERROR.
func FromStorage(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError(resource, id)
	}
	return NewPersistenceError(err)
}
