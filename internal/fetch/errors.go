package fetch

import (
	"errors"
	"fmt"
)

// HTTPError indicates a non-2xx response.
type HTTPError struct {
	// URL is the requested address.
	URL string
	// StatusCode is the HTTP status code.
	StatusCode int
	// Body holds at most the first KiB of the response body.
	Body []byte
}

// Error returns a string representation of the HTTP error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: GET %s: status %d", e.URL, e.StatusCode)
}

// Temporary reports whether retrying the request could succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 408 || e.StatusCode == 429
}

// Sentinel errors for fetch operations.
var (
	// ErrBodyTooLarge indicates the response exceeded Config.MaxBodyBytes.
	ErrBodyTooLarge = errors.New("response body too large")
	// ErrInvalidURL indicates the URL could not be used for a request.
	ErrInvalidURL = errors.New("invalid url")
)
