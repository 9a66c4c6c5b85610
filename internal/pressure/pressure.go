// Package pressure projects a MAC velocity field onto its divergence-free
// part. Each Solve builds a Poisson system from the velocity divergence,
// solves it with an fdm solver and subtracts the pressure gradient.
package pressure

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/boundary"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/fdm"
	"github.com/san-kum/flipsim/internal/grid"
)

// Solver is a pressure projection.
type Solver interface {
	// Solve writes the projected input into output. The return value is
	// the linear solver's convergence flag; a false result still leaves a
	// best-effort projection in output.
	Solve(input *grid.FaceCenteredGrid, dt float64, output *grid.FaceCenteredGrid,
		boundarySDF grid.ScalarField, boundaryVelocity grid.VectorField, fluidSDF grid.ScalarField) (bool, error)
	// SuggestedBoundaryConditionSolver returns the boundary treatment that
	// matches this projection's discretization.
	SuggestedBoundaryConditionSolver() boundary.Solver
	// Pressure is the last solved pressure, one value per cell.
	Pressure() *fdm.Vector
	LinearSystemSolver() fdm.Solver
	SetLinearSystemSolver(s fdm.Solver)
}

// Default linear solver settings.
const (
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-6
)

// prepareOutput validates the grid pair and seeds output with input.
func prepareOutput(input, output *grid.FaceCenteredGrid) error {
	if input == nil || output == nil {
		return fmt.Errorf("nil velocity grid: %w", dynamo.ErrInvalidArgument)
	}
	if input.Resolution().IsZero() {
		return fmt.Errorf("velocity resolution %s: %w", input.Resolution(), dynamo.ErrInvalidResolution)
	}
	if output != input {
		if !output.HasSameShape(input) {
			return fmt.Errorf("input %s and output %s: %w", input.Resolution(), output.Resolution(), dynamo.ErrDimensionMismatch)
		}
		output.Set(input)
	}
	return nil
}
