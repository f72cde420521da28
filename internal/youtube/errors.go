package youtube

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Sentinel errors for Data API lookups.
var (
	// ErrNoComments indicates the video has no top-level comment threads.
	ErrNoComments = errors.New("no comments on video")
	// ErrNoPhoto indicates the channel has no high resolution thumbnail.
	ErrNoPhoto = errors.New("no profile photo found")
	// ErrMalformedResponse indicates a response lacked a required field.
	ErrMalformedResponse = errors.New("malformed api response")
	// ErrQuotaExceeded indicates the daily Data API quota is used up.
	ErrQuotaExceeded = errors.New("youtube api quota exceeded")
)

// APIError wraps a failed Data API call with the operation that made it.
type APIError struct {
	// Op names the API method, e.g. "commentThreads.list".
	Op string
	// StatusCode is the HTTP status if the server answered, otherwise 0.
	StatusCode int
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("youtube %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("youtube %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error { return e.Err }

// wrapAPIError converts library errors into *APIError, mapping quota
// exhaustion onto ErrQuotaExceeded.
func wrapAPIError(op string, err error) error {
	apiErr := &APIError{Op: op, Err: err}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		apiErr.StatusCode = gErr.Code
		if gErr.Code == http.StatusForbidden && isQuotaReason(gErr) {
			apiErr.Err = fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		}
	}
	return apiErr
}

func isQuotaReason(e *googleapi.Error) bool {
	for _, item := range e.Errors {
		switch item.Reason {
		case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded":
			return true
		}
	}
	return false
}
