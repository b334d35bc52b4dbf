// Package httputil provides shared HTTP response helpers.
package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/kbequiv/internal/models"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeInvalidRequest  = "invalid_request"
	CodeMisconfigured   = "misconfigured_edge_sets"
	CodeQueryFailure    = "query_failure"
	CodeCancelled       = "cancelled"
	CodeInternal        = "internal_error"
	CodeNotFound        = "not_found"
	CodeUnauthorized    = "unauthorized"
	CodeRateLimited     = "rate_limited"
	CodeServiceNotReady = "not_ready"
)

// StatusClientClosedRequest is the non-standard status logged when the caller went away.
const StatusClientClosedRequest = 499

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondError writes a standardized JSON error response and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: c.GetString("request_id"),
	})
}

// Classify maps a resolution error onto an HTTP status and error code.
func Classify(err error) (status int, code string) {
	switch {
	case errors.Is(err, models.ErrMisconfiguredEdgeSets):
		return http.StatusBadRequest, CodeMisconfigured
	case models.IsValidationError(err):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, models.ErrCancelled):
		return http.StatusRequestTimeout, CodeCancelled
	case errors.Is(err, models.ErrQueryFailure):
		return http.StatusBadGateway, CodeQueryFailure
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
