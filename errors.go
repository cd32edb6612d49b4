package positions

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired is returned for HTTP 401. Callers should drop
	// any stored credentials and authenticate again.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrUnsupportedMethod is returned before any network call for verbs the backend does not accept.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")
)

// APIError is a non-success response other than 401.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// MalformedResponseError is a success response whose body is not JSON.
type MalformedResponseError struct {
	StatusCode int
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response (status %d): %v", e.StatusCode, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// errorResponse is the optional JSON body of a failed request
type errorResponse struct {
	Message any `json:"message"`
}
