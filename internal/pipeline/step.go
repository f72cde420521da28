package pipeline

// outcome tags what a stage decided.
type outcome int

const (
	proceed outcome = iota
	halt
	fail
)

// step is the result of one stage: a payload to hand to the next stage, a
// halt with the final status, or a failure.
type step[T any] struct {
	kind   outcome
	value  T
	status Status
	err    *StageError
}

func next[T any](v T) step[T] {
	return step[T]{kind: proceed, value: v}
}

func stop[T any](status Status) step[T] {
	return step[T]{kind: halt, status: status}
}

func failed[T any](stage Stage, kind ErrorKind, msg string, err error) step[T] {
	return step[T]{kind: fail, status: StatusFailed, err: &StageError{Stage: stage, Kind: kind, Msg: msg, Err: err}}
}
