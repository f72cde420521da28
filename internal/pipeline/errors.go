package pipeline

import "fmt"

// ErrorKind classifies a stage failure.
type ErrorKind string

// Failure kinds.
const (
	KindAuth      ErrorKind = "auth"
	KindTransport ErrorKind = "transport"
	KindMalformed ErrorKind = "malformed"
	KindStorage   ErrorKind = "storage"
	KindUpload    ErrorKind = "upload"
)

// StageError is the structured failure of one stage: which stage, what kind
// of failure, a short message, and the cause.
type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Msg   string
	Err   error
}

// Error returns a string representation of the stage error.
func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%s): %s", e.Stage, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s (%s): %s: %v", e.Stage, e.Kind, e.Msg, e.Err)
}

// Unwrap returns the cause.
func (e *StageError) Unwrap() error { return e.Err }
