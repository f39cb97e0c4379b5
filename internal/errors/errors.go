package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"gomix/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. Domain errors keep their
// classified code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the code of the outermost AppError in the chain, or the
// classified code of a domain error. Anything else is INTERNAL_ERROR.
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return classify(err)
}

func classify(err error) string {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return CodeTimeout
	case core.IsSchemaError(err):
		return CodeSchemaError
	case core.IsInsufficientData(err):
		return CodeInsufficientData
	case core.IsParameterError(err):
		return CodeParameterDomain
	}
	return CodeInternalError
}

// Classify converts any error into an AppError carrying a stable code.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: classify(err), Message: err.Error()}
}

// HTTPStatus maps an error code to a response status.
func HTTPStatus(code string) int {
	switch code {
	case CodeSchemaError, CodeInsufficientData:
		return http.StatusUnprocessableEntity
	case CodeParameterDomain, CodeInvalidInput, CodeValidationError:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeSchemaError      = "SCHEMA_ERROR"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeParameterDomain  = "PARAMETER_DOMAIN"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeTimeout          = "TIMEOUT"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
