// Package engine implements the per-stack lifecycle: save, deploy,
// start/stop/restart, update, down, delete, plus status aggregation and
// the stack listing, reconciling lock state against what the runtime
// reports.
package engine

import "fmt"

// Kind classifies an EngineError for the facade's response shaping.
type Kind int

const (
	ValidationError Kind = iota
	PreflightError
	RuntimeError
	IOError
	NotFound
)

func (k Kind) String() string {
	switch k {
	case ValidationError:
		return "ValidationError"
	case PreflightError:
		return "PreflightError"
	case RuntimeError:
		return "RuntimeError"
	case IOError:
		return "IOError"
	case NotFound:
		return "NotFound"
	default:
		return "UnknownError"
	}
}

// EngineError is the single error type every engine operation returns.
type EngineError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string) *EngineError {
	return &EngineError{Kind: kind, Msg: msg}
}

// NewValidationError constructs a ValidationError for callers outside the
// package, such as the facade, whose argument type-checking precedes any
// call into the engine.
func NewValidationError(msg string) *EngineError {
	return newError(ValidationError, msg)
}

func wrapError(kind Kind, msg string, err error) *EngineError {
	return &EngineError{Kind: kind, Msg: msg, Err: err}
}
