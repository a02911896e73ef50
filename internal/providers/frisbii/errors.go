package frisbii

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidRequest = errors.New("invalid_gateway_request")
	ErrMissingAPIKey  = errors.New("missing_api_key")
)

// APIError is returned for any non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Message    string
	Body       map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("frisbii: %d: %s", e.StatusCode, e.Message)
}

// IsClientError reports whether the provider rejected the request itself.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

func newAPIError(status int, body map[string]any) *APIError {
	msg := fmt.Sprintf("Frisbii API error: %d", status)
	if body != nil {
		if m, ok := body["message"].(string); ok && m != "" {
			msg = m
		}
	}
	if body == nil {
		body = map[string]any{}
	}
	return &APIError{StatusCode: status, Message: msg, Body: body}
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr, true
	}
	return nil, false
}
