package errors

import (
	stderrors "errors"
	"fmt"
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

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
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

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the code of the first AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid         = "CONFIG_INVALID"
	CodeDatabaseError         = "DATABASE_ERROR"
	CodeValidationError       = "VALIDATION_ERROR"
	CodeNotFound              = "NOT_FOUND"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeInvalidInput          = "INVALID_INPUT"
	CodePrimaryResultsInvalid = "PRIMARY_RESULTS_INVALID"
	CodeWireFormatInvalid     = "WIRE_FORMAT_INVALID"
	CodeCatalogInvalid        = "CATALOG_INVALID"
	CodeExportFailed          = "EXPORT_FAILED"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
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

// PrimaryResultsInvalid marks the one fatal input failure of a graph build
func PrimaryResultsInvalid(path string, cause error) *AppError {
	return &AppError{
		Code:    CodePrimaryResultsInvalid,
		Message: fmt.Sprintf("primary results %s unusable", path),
		Cause:   cause,
	}
}

func WireFormatInvalid(source string, cause error) *AppError {
	return &AppError{
		Code:    CodeWireFormatInvalid,
		Message: fmt.Sprintf("graph document %s invalid", source),
		Cause:   cause,
	}
}

func CatalogInvalid(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeCatalogInvalid,
		Message: fmt.Sprintf("game catalog %s invalid", path),
		Cause:   cause,
	}
}

func ExportFailed(target string, cause error) *AppError {
	return &AppError{
		Code:    CodeExportFailed,
		Message: fmt.Sprintf("export to %s failed", target),
		Cause:   cause,
	}
}
