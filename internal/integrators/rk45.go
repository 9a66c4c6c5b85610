package integrators

import (
	"math"

	"github.com/san-kum/flipsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Dormand-Prince coefficients (RK45)
var (
	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	safety    float64
	minScale  float64
	maxScale  float64
	tolerance float64
	maxSteps  int
}

func NewRK45() *RK45 {
	return &RK45{
		safety:    0.9,
		minScale:  0.2,
		maxScale:  10.0,
		tolerance: 1e-6,
		maxSteps:  64,
	}
}

// Trace covers dt with adaptive sub-steps.
func (r *RK45) Trace(flow grid.VectorField, p r3.Vec, dt float64) r3.Vec {
	remaining := dt
	h := dt
	for step := 0; step < r.maxSteps && math.Abs(remaining) > 1e-12; step++ {
		if math.Abs(h) > math.Abs(remaining) {
			h = remaining
		}
		next, hNew, accepted := r.StepAdaptive(flow, p, h, r.tolerance)
		if accepted {
			p = next
			remaining -= h
		}
		h = hNew
	}
	if math.Abs(remaining) > 1e-12 {
		p = NewRK4().Trace(flow, p, remaining)
	}
	return p
}

// StepAdaptive takes one Dormand-Prince step of size dt and returns the
// new point, the suggested next step size and whether the error estimate
// was within tol.
func (r *RK45) StepAdaptive(flow grid.VectorField, p r3.Vec, dt, tol float64) (r3.Vec, float64, bool) {
	k1 := flow.Sample(p)
	k2 := flow.Sample(r3.Add(p, r3.Scale(dt*b21, k1)))
	k3 := flow.Sample(r3.Add(p, r3.Scale(dt, combine([]r3.Vec{k1, k2}, b31, b32))))
	k4 := flow.Sample(r3.Add(p, r3.Scale(dt, combine([]r3.Vec{k1, k2, k3}, b41, b42, b43))))
	k5 := flow.Sample(r3.Add(p, r3.Scale(dt, combine([]r3.Vec{k1, k2, k3, k4}, b51, b52, b53, b54))))
	k6 := flow.Sample(r3.Add(p, r3.Scale(dt, combine([]r3.Vec{k1, k2, k3, k4, k5}, b61, b62, b63, b64, b65))))

	next := r3.Add(p, r3.Scale(dt, combine([]r3.Vec{k1, k3, k4, k5, k6}, c1, c3, c4, c5, c6)))
	k7 := flow.Sample(next)

	errEst := r3.Scale(dt, combine([]r3.Vec{k1, k3, k4, k5, k6, k7}, dc1, dc3, dc4, dc5, dc6, dc7))
	errMax := 0.0
	for _, c := range [][3]float64{{errEst.X, p.X, k1.X}, {errEst.Y, p.Y, k1.Y}, {errEst.Z, p.Z, k1.Z}} {
		scale := math.Abs(c[1]) + math.Abs(dt*c[2]) + 1e-10
		errMax = math.Max(errMax, math.Abs(c[0])/scale)
	}

	errRatio := errMax / tol

	var dtNew float64
	if errRatio > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		dtNew = dt * scale
	} else {
		if errRatio > 0 {
			scale := math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			dtNew = dt * scale
		} else {
			dtNew = dt * r.maxScale
		}
	}

	return next, dtNew, errRatio <= 1
}

// combine returns the weighted sum of k.
func combine(k []r3.Vec, weights ...float64) r3.Vec {
	var sum r3.Vec
	for i, w := range weights {
		sum = r3.Add(sum, r3.Scale(w, k[i]))
	}
	return sum
}
