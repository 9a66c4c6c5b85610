package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidArgument indicates a caller passed a value outside its valid range.
	ErrInvalidArgument = errors.New("dynamo: invalid argument")

	// ErrDimensionMismatch indicates grids, vectors or matrices of different sizes.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrInvalidResolution indicates a grid resolution with a zero axis or non-positive spacing.
	ErrInvalidResolution = errors.New("dynamo: invalid grid resolution")

	// ErrUnknownSolver indicates a solver name missing from the registry.
	ErrUnknownSolver = errors.New("dynamo: unknown solver")

	// ErrUnknownScene indicates a scene name missing from the registry.
	ErrUnknownScene = errors.New("dynamo: unknown scene")

	// ErrNotInitialized indicates an operation on a solver that has no grid or particles yet.
	ErrNotInitialized = errors.New("dynamo: not initialized")
)

// SimulationError wraps an error with the frame and sub-step it occurred in.
type SimulationError struct {
	Frame   int
	SubStep int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("frame %d (sub-step %d, t=%.4f): %v", e.Frame, e.SubStep, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
