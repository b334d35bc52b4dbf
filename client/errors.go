package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the kbequiv API.
const (
	CodeInvalidRequest = "invalid_request"
	CodeMisconfigured  = "misconfigured_edge_sets"
	CodeQueryFailure   = "query_failure"
	CodeCancelled      = "cancelled"
	CodeUnauthorized   = "unauthorized"
	CodeRateLimited    = "rate_limited"
)

// APIError represents a structured error response from the kbequiv API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("kbequiv: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("kbequiv: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func hasCode(err error, code string) bool {
	var e *APIError
	return errors.As(err, &e) && e.Code == code
}

// IsQueryFailure reports whether the knowledge base could not answer the resolution.
func IsQueryFailure(err error) bool { return hasCode(err, CodeQueryFailure) }

// IsCancelled reports whether the server abandoned the resolution.
func IsCancelled(err error) bool { return hasCode(err, CodeCancelled) }

// IsMisconfigured reports whether the request classified an edge class as both
// equivalency and directional.
func IsMisconfigured(err error) bool { return hasCode(err, CodeMisconfigured) }

// IsInvalidRequest reports whether the request failed validation.
func IsInvalidRequest(err error) bool { return hasCode(err, CodeInvalidRequest) }

// IsUnauthorized reports whether the API key was missing or wrong.
func IsUnauthorized(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == http.StatusUnauthorized
}

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == http.StatusTooManyRequests
}

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
