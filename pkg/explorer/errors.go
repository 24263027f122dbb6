package explorer

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized marks an expired or invalid token. Callers log the user out instead of showing it.
var ErrUnauthorized = errors.New("explorer: unauthorized")

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("explorer: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// ErrorMessage extracts the text to show for a failed request, falling back when err is not an APIError.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
