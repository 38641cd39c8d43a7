package responses

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schemaboard/internal/errs"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func Fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusCode, resp)
}

const retryAfterSeconds = "1"

// Error replies with the status that matches err's kind. Internal failures
// hide the cause from the client. Transient failures carry Retry-After.
func Error(c *gin.Context, err error, message string) {
	status := StatusFor(err)
	if errs.IsTransient(err) {
		c.Header("Retry-After", retryAfterSeconds)
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, APIResponse{Status: "error", Message: message, Error: errs.KindOf(err).String()})
		return
	}
	Fail(c, status, err, message)
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errs.IsInvalidInput(err):
		return http.StatusBadRequest
	case errs.IsUnauthenticated(err):
		return http.StatusUnauthorized
	case errs.IsPermissionDenied(err):
		return http.StatusForbidden
	case errs.IsNotFound(err):
		return http.StatusNotFound
	case errs.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errs.IsConnectionFailed(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
