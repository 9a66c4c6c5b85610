package integrators

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func benchTracer(b *testing.B, tr Tracer) {
	p := r3.Vec{X: 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p = tr.Trace(rotation, p, 0.01)
	}
}

func BenchmarkEuler(b *testing.B)    { benchTracer(b, NewEuler()) }
func BenchmarkMidpoint(b *testing.B) { benchTracer(b, NewMidpoint()) }
func BenchmarkRK4(b *testing.B)      { benchTracer(b, NewRK4()) }
func BenchmarkRK45(b *testing.B)     { benchTracer(b, NewRK45()) }
