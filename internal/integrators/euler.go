package integrators

import (
	"github.com/san-kum/flipsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Trace(flow grid.VectorField, p r3.Vec, dt float64) r3.Vec {
	return r3.Add(p, r3.Scale(dt, flow.Sample(p)))
}

// Midpoint samples the flow half a step ahead.
type Midpoint struct{}

func NewMidpoint() *Midpoint {
	return &Midpoint{}
}

func (m *Midpoint) Trace(flow grid.VectorField, p r3.Vec, dt float64) r3.Vec {
	mid := r3.Add(p, r3.Scale(0.5*dt, flow.Sample(p)))
	return r3.Add(p, r3.Scale(dt, flow.Sample(mid)))
}
