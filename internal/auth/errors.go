package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for authorization.
var (
	// ErrNoToken indicates no usable token is cached.
	ErrNoToken = errors.New("no cached token")
	// ErrNoCode indicates the operator entered an empty authorization code.
	ErrNoCode = errors.New("no authorization code entered")
)

// Error wraps an authorization failure with the step that failed.
type Error struct {
	// Op is the failing step, e.g. "load_client", "prompt", "exchange",
	// "save_token" or "refresh".
	Op  string
	Err error
}

// Error returns a string representation of the authorization error.
func (e *Error) Error() string {
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }
