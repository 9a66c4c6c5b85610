// Package integrators traces points through a velocity field.
package integrators

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tracer advances p by dt along flow. A negative dt traces backwards.
type Tracer interface {
	Trace(flow grid.VectorField, p r3.Vec, dt float64) r3.Vec
}

// New returns the tracer registered under name.
func New(name string) (Tracer, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "midpoint", "":
		return NewMidpoint(), nil
	case "rk4":
		return NewRK4(), nil
	case "rk45":
		return NewRK45(), nil
	}
	return nil, fmt.Errorf("integrator %q: %w", name, dynamo.ErrInvalidArgument)
}

// Names lists the registered tracers.
func Names() []string {
	return []string{"euler", "midpoint", "rk4", "rk45"}
}
