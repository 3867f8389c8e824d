package dynamo

import (
	"errors"
	"fmt"
)

// Contract violations surfaced by environments. None of them are retried.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrNotReset indicates Step was called before the first Reset.
	ErrNotReset = errors.New("dynamo: call reset before using step")

	// ErrActionOutOfBounds indicates an action outside the declared action space
	// while clipping is disabled.
	ErrActionOutOfBounds = errors.New("dynamo: action outside action space")

	// ErrResetBounds indicates reset sampling bounds outside the observation space.
	ErrResetBounds = errors.New("dynamo: reset bounds outside observation space")

	// ErrNotImplemented is returned by operations an environment does not support.
	ErrNotImplemented = errors.New("dynamo: not implemented")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParam indicates a named parameter the model does not expose.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with the step it happened on.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// UnknownParam is the error SetParam implementations return for names they do
// not recognise.
func UnknownParam(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownParam, name)
}
