package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a structured error returned by the HTTP API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	if e.Status > 0 {
		return fmt.Sprintf("api error: %d", e.Status)
	}
	return "api error"
}

// IsAuthExpired reports whether err is an unauthorized response. The caller
// treats it as a sign-out condition and clears the cached session.
func IsAuthExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a missing-resource response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
