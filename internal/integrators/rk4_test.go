package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/flipsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// rotation spins points about the z axis with unit angular speed.
var rotation = grid.VectorFieldFunc(func(p r3.Vec) r3.Vec {
	return r3.Vec{X: -p.Y, Y: p.X}
})

func traceCircle(tr Tracer, steps int, dt float64) r3.Vec {
	p := r3.Vec{X: 1}
	for i := 0; i < steps; i++ {
		p = tr.Trace(rotation, p, dt)
	}
	return p
}

func TestRK4Accuracy(t *testing.T) {
	dt := 0.01
	steps := 100
	p := traceCircle(NewRK4(), steps, dt)

	expectedX := math.Cos(float64(steps) * dt)
	expectedY := math.Sin(float64(steps) * dt)

	if math.Abs(p.X-expectedX) > 1e-8 {
		t.Errorf("x error too large: got %.10f, expected %.10f", p.X, expectedX)
	}
	if math.Abs(p.Y-expectedY) > 1e-8 {
		t.Errorf("y error too large: got %.10f, expected %.10f", p.Y, expectedY)
	}
}

func TestTracerOrder(t *testing.T) {
	exact := r3.Vec{X: math.Cos(1), Y: math.Sin(1)}
	euler := r3.Norm(r3.Sub(traceCircle(NewEuler(), 100, 0.01), exact))
	mid := r3.Norm(r3.Sub(traceCircle(NewMidpoint(), 100, 0.01), exact))
	rk4 := r3.Norm(r3.Sub(traceCircle(NewRK4(), 100, 0.01), exact))

	if !(rk4 < mid && mid < euler) {
		t.Errorf("expected rk4 < midpoint < euler, got %g %g %g", rk4, mid, euler)
	}
	if euler > 1e-2 {
		t.Errorf("euler drift too large: %g", euler)
	}
}

func TestBackwardTrace(t *testing.T) {
	tracers := []Tracer{NewEuler(), NewMidpoint(), NewRK4(), NewRK45()}
	uniform := grid.ConstantVectorField{X: 2, Y: -1}
	for _, tr := range tracers {
		p := tr.Trace(uniform, r3.Vec{X: 1, Y: 1, Z: 1}, -0.5)
		if r3.Norm(r3.Sub(p, r3.Vec{X: 0, Y: 1.5, Z: 1})) > 1e-12 {
			t.Errorf("%T: got %v", tr, p)
		}
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
	if _, err := New("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
