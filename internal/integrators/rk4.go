package integrators

import (
	"github.com/san-kum/flipsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Trace(flow grid.VectorField, p r3.Vec, dt float64) r3.Vec {
	k1 := flow.Sample(p)
	k2 := flow.Sample(r3.Add(p, r3.Scale(0.5*dt, k1)))
	k3 := flow.Sample(r3.Add(p, r3.Scale(0.5*dt, k2)))
	k4 := flow.Sample(r3.Add(p, r3.Scale(dt, k3)))

	sum := r3.Add(r3.Add(k1, r3.Scale(2, k2)), r3.Add(r3.Scale(2, k3), k4))
	return r3.Add(p, r3.Scale(dt/6.0, sum))
}
