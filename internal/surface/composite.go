package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Flipped turns a surface inside out. A flipped box is a closed container
// whose inside is the region outside the box walls.
type Flipped struct {
	Surface Surface
}

func (f Flipped) ClosestPoint(p r3.Vec) r3.Vec { return f.Surface.ClosestPoint(p) }

func (f Flipped) ClosestNormal(p r3.Vec) r3.Vec {
	return r3.Scale(-1, f.Surface.ClosestNormal(p))
}

func (f Flipped) ClosestDistance(p r3.Vec) float64 { return f.Surface.ClosestDistance(p) }
func (f Flipped) SignedDistance(p r3.Vec) float64  { return -f.Surface.SignedDistance(p) }
func (f Flipped) Intersects(ray Ray) bool          { return f.Surface.Intersects(ray) }
func (f Flipped) BoundingBox() BoundingBox         { return f.Surface.BoundingBox() }
func (f Flipped) IsBounded() bool                  { return f.Surface.IsBounded() }

// Set is the union of several surfaces.
type Set []Surface

func (s Set) closest(p r3.Vec) (Surface, float64) {
	var best Surface
	bestDist := math.Inf(1)
	for _, sub := range s {
		if d := sub.ClosestDistance(p); d < bestDist {
			best, bestDist = sub, d
		}
	}
	return best, bestDist
}

func (s Set) ClosestPoint(p r3.Vec) r3.Vec {
	best, _ := s.closest(p)
	if best == nil {
		inf := math.Inf(1)
		return r3.Vec{X: inf, Y: inf, Z: inf}
	}
	return best.ClosestPoint(p)
}

func (s Set) ClosestNormal(p r3.Vec) r3.Vec {
	best, _ := s.closest(p)
	if best == nil {
		return r3.Vec{X: 1}
	}
	return best.ClosestNormal(p)
}

func (s Set) ClosestDistance(p r3.Vec) float64 {
	_, d := s.closest(p)
	return d
}

// SignedDistance is the minimum over members, which is exact for the union
// outside and a lower bound inside.
func (s Set) SignedDistance(p r3.Vec) float64 {
	d := math.Inf(1)
	for _, sub := range s {
		d = min(d, sub.SignedDistance(p))
	}
	return d
}

func (s Set) Intersects(ray Ray) bool {
	for _, sub := range s {
		if sub.Intersects(ray) {
			return true
		}
	}
	return false
}

func (s Set) BoundingBox() BoundingBox {
	box := EmptyBoundingBox()
	for _, sub := range s {
		box = box.Merge(sub.BoundingBox())
	}
	return box
}

func (s Set) IsBounded() bool {
	for _, sub := range s {
		if !sub.IsBounded() {
			return false
		}
	}
	return true
}

// Implicit wraps an arbitrary signed distance function. Closest points are
// found by walking along the gradient.
type Implicit struct {
	SDF func(r3.Vec) float64
	// Domain bounds where the function is meaningful.
	Domain BoundingBox
	// Resolution is the finite difference step.
	Resolution    float64
	MaxIterations int
}

// NewImplicit returns an Implicit with default step and iteration count.
func NewImplicit(sdf func(r3.Vec) float64, domain BoundingBox) *Implicit {
	return &Implicit{SDF: sdf, Domain: domain, Resolution: 1e-3, MaxIterations: 5}
}

func (c *Implicit) gradient(p r3.Vec) r3.Vec {
	h := c.Resolution
	dx := c.SDF(r3.Add(p, r3.Vec{X: 0.5 * h})) - c.SDF(r3.Sub(p, r3.Vec{X: 0.5 * h}))
	dy := c.SDF(r3.Add(p, r3.Vec{Y: 0.5 * h})) - c.SDF(r3.Sub(p, r3.Vec{Y: 0.5 * h}))
	dz := c.SDF(r3.Add(p, r3.Vec{Z: 0.5 * h})) - c.SDF(r3.Sub(p, r3.Vec{Z: 0.5 * h}))
	return r3.Scale(1/h, r3.Vec{X: dx, Y: dy, Z: dz})
}

func (c *Implicit) ClosestPoint(p r3.Vec) r3.Vec {
	lo, hi := c.Domain.Lower, c.Domain.Upper
	pt := r3.Vec{X: min(max(p.X, lo.X), hi.X), Y: min(max(p.Y, lo.Y), hi.Y), Z: min(max(p.Z, lo.Z), hi.Z)}
	for iter := 0; iter < c.MaxIterations; iter++ {
		sdf := c.SDF(pt)
		if math.Abs(sdf) < 1e-9 {
			break
		}
		pt = r3.Sub(pt, r3.Scale(sdf, c.gradient(pt)))
	}
	return pt
}

func (c *Implicit) ClosestNormal(p r3.Vec) r3.Vec {
	g := c.gradient(c.ClosestPoint(p))
	if r3.Norm(g) == 0 {
		return r3.Vec{X: 1}
	}
	return r3.Unit(g)
}

func (c *Implicit) ClosestDistance(p r3.Vec) float64 {
	return math.Abs(c.SDF(p))
}

func (c *Implicit) SignedDistance(p r3.Vec) float64 {
	return c.SDF(p)
}

// Intersects sphere-traces the ray through the domain.
func (c *Implicit) Intersects(ray Ray) bool {
	dir := ray.Direction
	if r3.Norm(dir) == 0 {
		return c.SDF(ray.Origin) < 0
	}
	dir = r3.Unit(dir)
	diag := r3.Norm(r3.Sub(c.Domain.Upper, c.Domain.Lower))
	limit := r3.Norm(r3.Sub(ray.Origin, c.Domain.Lower)) + diag
	prev := c.SDF(ray.Origin)
	for t := 0.0; t <= limit; {
		t += max(math.Abs(prev), c.Resolution)
		cur := c.SDF(r3.Add(ray.Origin, r3.Scale(t, dir)))
		if cur*prev <= 0 {
			return true
		}
		prev = cur
	}
	return false
}

func (c *Implicit) BoundingBox() BoundingBox { return c.Domain }

func (c *Implicit) IsBounded() bool { return true }
