package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common error types.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")
	ErrConflict      = errors.New("resource conflict")
	ErrInternal      = errors.New("internal error")
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("configuration missing")
	ErrProvider      = errors.New("provider error")
	ErrIntegrity     = errors.New("integrity check failed")
	ErrTimeout       = errors.New("timeout")
)

// Error codes.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeConfiguration  = "CONFIGURATION_ERROR"
	CodeProvider       = "PROVIDER_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeIntegrity      = "INTEGRITY_ERROR"
	CodeTimeout        = "TIMEOUT"
)

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error carrying details.
func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Common error constructors.

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Err:        ErrUnauthorized,
	}
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    message,
		StatusCode: http.StatusForbidden,
		Err:        ErrForbidden,
	}
}

// BadRequest creates a bad request error.
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrBadRequest,
	}
}

// Conflict creates a conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
		Err:        ErrConflict,
	}
}

// Internal creates an internal error.
func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Payment error kinds ---

// Validation reports missing or malformed client input. Missing field names
// are listed in the message and carried in Details.
func Validation(message string, missing ...string) *AppError {
	if len(missing) > 0 {
		if message == "" {
			message = "missing required fields"
		}
		message = fmt.Sprintf("%s: %s", message, strings.Join(missing, ", "))
	}
	e := &AppError{
		Code:       CodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrValidation,
	}
	if len(missing) > 0 {
		e.Details = map[string]any{"missing": missing}
	}
	return e
}

// Configuration reports a required credential or setting that is absent.
func Configuration(message string) *AppError {
	return &AppError{
		Code:       CodeConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        ErrConfiguration,
	}
}

// Provider reports a failed call to an external payment API. Provider HTTP
// error statuses are passed through, anything else maps to 500.
func Provider(provider string, status int, message string, err error) *AppError {
	code := http.StatusInternalServerError
	if status >= 400 && status <= 599 {
		code = status
	}
	if err == nil {
		err = ErrProvider
	} else {
		err = fmt.Errorf("%w: %w", ErrProvider, err)
	}
	return &AppError{
		Code:       CodeProvider,
		Message:    fmt.Sprintf("%s: %s", provider, message),
		StatusCode: code,
		Err:        err,
		Details:    map[string]any{"provider": provider, "provider_status": status},
	}
}

// Authentication reports a webhook whose credentials do not match.
func Authentication(message string) *AppError {
	if message == "" {
		message = "invalid webhook credentials"
	}
	return &AppError{
		Code:       CodeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Err:        ErrUnauthorized,
	}
}

// Integrity reports a webhook whose claims disagree with the provider record.
func Integrity(message string, mismatched ...string) *AppError {
	e := &AppError{
		Code:       CodeIntegrity,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrIntegrity,
	}
	if len(mismatched) > 0 {
		e.Details = map[string]any{"mismatched": mismatched}
	}
	return e
}

// Timeout reports a provider call that exceeded its deadline.
func Timeout(provider string, err error) *AppError {
	if err == nil {
		err = ErrTimeout
	} else {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return &AppError{
		Code:       CodeTimeout,
		Message:    fmt.Sprintf("%s: request timed out", provider),
		StatusCode: http.StatusGatewayTimeout,
		Err:        err,
	}
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// GetStatusCode returns the appropriate HTTP status code for an error.
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation), errors.Is(err, ErrIntegrity):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
