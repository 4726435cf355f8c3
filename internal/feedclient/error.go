package feedclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// APIError is a non-2xx response carrying a structured {error} payload.
// The optimistic session treats it as a rejection and shows Message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message) }

// RejectReason implements optimistic.Rejection.
func (e *APIError) RejectReason() string { return e.Message }

// HTTPError is a non-2xx response without a structured payload, e.g. from a
// proxy. It is classified as a network failure.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string { return "unexpected response: " + e.Status }

func parseError(resp *resty.Response) error {
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err == nil && env.Error != "" {
		return &APIError{StatusCode: resp.StatusCode(), Message: env.Error}
	}
	status := resp.Status()
	if status == "" {
		status = http.StatusText(resp.StatusCode())
	}
	return &HTTPError{StatusCode: resp.StatusCode(), Status: status}
}

// IsUnauthorized checks if err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsNotFound checks if err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}
