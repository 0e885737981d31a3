package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/vestire/server/internal/shared/errors"
)

// GenericPaymentMessage is shown to customers instead of provider detail.
const GenericPaymentMessage = "payment could not be processed"

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Error sends an error response with the given status code.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// ErrorWithCode sends an error response with an error code.
func ErrorWithCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// BadRequest sends a 400 Bad Request response.
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadRequest, apperrors.CodeValidation, message)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "not found"
	}
	Error(c, http.StatusNotFound, message)
}

// InternalError sends a 500 Internal Server Error response.
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "internal error"
	}
	Error(c, http.StatusInternalServerError, message)
}

// FromError writes err as a JSON error response. Provider and timeout
// failures are reported with a generic message; their detail belongs in logs.
func FromError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.JSON(apperrors.GetStatusCode(err), ErrorResponse{Error: "internal error", Code: "INTERNAL_ERROR"})
		return
	}

	resp := ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	}
	switch appErr.Code {
	case apperrors.CodeProvider, apperrors.CodeTimeout:
		resp.Error = GenericPaymentMessage
		resp.Details = nil
	case "INTERNAL_ERROR":
		resp.Details = nil
	}
	c.JSON(appErr.StatusCode, resp)
}

// ErrorMapping maps domain errors to HTTP status codes.
type ErrorMapping struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// HandleError handles an error using the provided mappings.
// Returns true if the error was handled, false otherwise.
func HandleError(c *gin.Context, err error, mappings []ErrorMapping) bool {
	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			msg := m.Message
			if msg == "" {
				msg = m.Err.Error()
			}
			if m.Code != "" {
				ErrorWithCode(c, m.Status, m.Code, msg)
			} else {
				Error(c, m.Status, msg)
			}
			return true
		}
	}
	return false
}

// HandleErrorWithDefault handles an error with the mappings, falling back
// to FromError.
func HandleErrorWithDefault(c *gin.Context, err error, mappings []ErrorMapping) {
	if !HandleError(c, err, mappings) {
		FromError(c, err)
	}
}
