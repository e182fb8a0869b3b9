package utils

import (
	"errors"
	"net/http"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeBadRequest     = "BAD_REQUEST"
	CodeValidation     = "VALIDATION_ERROR"
	CodeAlreadyAwarded = "ALREADY_AWARDED"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeInternal       = "INTERNAL_ERROR"
)

// AppError carries the HTTP status a service failure should map to.
type AppError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

func ErrNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, nil)
}

func ErrBadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, nil)
}

// ErrAlreadyAwarded is the conflict case; it is a 400 like other client errors.
func ErrAlreadyAwarded(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeAlreadyAwarded, message, nil)
}

func ErrForbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, nil)
}

// ErrInternal wraps an unexpected failure and records the call stack.
func ErrInternal(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, "Internal server error", pkgerrors.WithStack(err))
}

// NotFoundOr maps gorm.ErrRecordNotFound to a 404 with message and anything
// else to an internal error.
func NotFoundOr(err error, message string) *AppError {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound(message)
	}
	return ErrInternal(err)
}

// AsAppError returns err as an *AppError, wrapping unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal(err)
}
