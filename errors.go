package ytthumb

import (
	"ytthumb/internal/auth"
	"ytthumb/internal/fetch"
	"ytthumb/internal/pipeline"
	"ytthumb/internal/retry"
	"ytthumb/internal/storage"
	"ytthumb/internal/youtube"
)

// Type aliases for convenient error handling.
type (
	// StageError is the structured failure of one pipeline stage.
	StageError = pipeline.StageError
	// AuthError wraps a failure while obtaining credentials.
	AuthError = auth.Error
	// APIError wraps a failed Data API call.
	APIError = youtube.APIError
	// HTTPError indicates a non-2xx response while downloading a photo.
	HTTPError = fetch.HTTPError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrNoComments indicates the video has no comments yet.
	ErrNoComments = youtube.ErrNoComments
	// ErrNoPhoto indicates the commenter's channel has no usable photo.
	ErrNoPhoto = youtube.ErrNoPhoto
	// ErrMalformedResponse indicates an API response lacked a required field.
	ErrMalformedResponse = youtube.ErrMalformedResponse
	// ErrQuotaExceeded indicates the daily Data API quota is used up.
	ErrQuotaExceeded = youtube.ErrQuotaExceeded

	// ErrNoToken indicates no usable token is cached.
	ErrNoToken = auth.ErrNoToken
	// ErrNoCode indicates an empty authorization code was entered.
	ErrNoCode = auth.ErrNoCode

	// ErrBodyTooLarge indicates a photo exceeded the download size limit.
	ErrBodyTooLarge = fetch.ErrBodyTooLarge

	// ErrNotFound indicates no commenter has been stored yet.
	ErrNotFound = storage.ErrNotFound
	// ErrLockTimeout indicates another run holds the state lock.
	ErrLockTimeout = storage.ErrLockTimeout
)
