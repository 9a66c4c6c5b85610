package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sphere is a solid ball.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

func (s Sphere) ClosestPoint(p r3.Vec) r3.Vec {
	return r3.Add(s.Center, r3.Scale(s.Radius, s.ClosestNormal(p)))
}

func (s Sphere) ClosestNormal(p r3.Vec) r3.Vec {
	d := r3.Sub(p, s.Center)
	if r3.Norm(d) == 0 {
		return r3.Vec{X: 1}
	}
	return r3.Unit(d)
}

func (s Sphere) ClosestDistance(p r3.Vec) float64 {
	return math.Abs(s.SignedDistance(p))
}

func (s Sphere) SignedDistance(p r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, s.Center)) - s.Radius
}

func (s Sphere) Intersects(ray Ray) bool {
	r := r3.Sub(ray.Origin, s.Center)
	a := r3.Dot(ray.Direction, ray.Direction)
	b := r3.Dot(ray.Direction, r)
	c := r3.Dot(r, r) - s.Radius*s.Radius
	disc := b*b - a*c
	if disc < 0 || a == 0 {
		return c <= 0
	}
	sq := math.Sqrt(disc)
	return (-b+sq)/a >= 0
}

func (s Sphere) BoundingBox() BoundingBox {
	ext := r3.Vec{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return BoundingBox{Lower: r3.Sub(s.Center, ext), Upper: r3.Add(s.Center, ext)}
}

func (s Sphere) IsBounded() bool { return true }

// Plane is the half-space behind Point with the given outward Normal.
type Plane struct {
	Normal r3.Vec
	Point  r3.Vec
}

func (p Plane) ClosestPoint(x r3.Vec) r3.Vec {
	n := r3.Unit(p.Normal)
	return r3.Sub(x, r3.Scale(r3.Dot(n, r3.Sub(x, p.Point)), n))
}

func (p Plane) ClosestNormal(r3.Vec) r3.Vec {
	return r3.Unit(p.Normal)
}

func (p Plane) ClosestDistance(x r3.Vec) float64 {
	return math.Abs(p.SignedDistance(x))
}

func (p Plane) SignedDistance(x r3.Vec) float64 {
	return r3.Dot(r3.Unit(p.Normal), r3.Sub(x, p.Point))
}

func (p Plane) Intersects(ray Ray) bool {
	dn := r3.Dot(ray.Direction, p.Normal)
	if math.Abs(dn) > 0 {
		t := r3.Dot(p.Normal, r3.Sub(p.Point, ray.Origin)) / dn
		return t >= 0
	}
	return false
}

func (p Plane) BoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{Lower: r3.Vec{X: -inf, Y: -inf, Z: -inf}, Upper: r3.Vec{X: inf, Y: inf, Z: inf}}
}

func (p Plane) IsBounded() bool { return false }

// Box is a solid axis-aligned box.
type Box struct {
	Bound BoundingBox
}

// NewBox returns the box spanning lower and upper.
func NewBox(lower, upper r3.Vec) Box {
	return Box{Bound: BoundingBox{Lower: lower, Upper: upper}}
}

func (b Box) planes() [6]Plane {
	lo, hi := b.Bound.Lower, b.Bound.Upper
	return [6]Plane{
		{Normal: r3.Vec{X: 1}, Point: hi},
		{Normal: r3.Vec{X: -1}, Point: lo},
		{Normal: r3.Vec{Y: 1}, Point: hi},
		{Normal: r3.Vec{Y: -1}, Point: lo},
		{Normal: r3.Vec{Z: 1}, Point: hi},
		{Normal: r3.Vec{Z: -1}, Point: lo},
	}
}

func (b Box) clamp(p r3.Vec) r3.Vec {
	lo, hi := b.Bound.Lower, b.Bound.Upper
	return r3.Vec{
		X: min(max(p.X, lo.X), hi.X),
		Y: min(max(p.Y, lo.Y), hi.Y),
		Z: min(max(p.Z, lo.Z), hi.Z),
	}
}

// closestPlane returns the face plane nearest to a point inside the box.
func (b Box) closestPlane(p r3.Vec) Plane {
	planes := b.planes()
	best := planes[0]
	bestDist := math.Inf(1)
	for _, pl := range planes {
		if d := pl.ClosestDistance(p); d < bestDist {
			best, bestDist = pl, d
		}
	}
	return best
}

func (b Box) ClosestPoint(p r3.Vec) r3.Vec {
	if b.Bound.Contains(p) {
		return b.closestPlane(p).ClosestPoint(p)
	}
	return b.clamp(p)
}

func (b Box) ClosestNormal(p r3.Vec) r3.Vec {
	if b.Bound.Contains(p) {
		return b.closestPlane(p).Normal
	}
	d := r3.Sub(p, b.clamp(p))
	if r3.Norm(d) == 0 {
		return b.closestPlane(p).Normal
	}
	// Pick the face whose normal best matches the outward direction.
	best := r3.Vec{}
	bestDot := math.Inf(-1)
	for _, pl := range b.planes() {
		if dot := r3.Dot(pl.Normal, d); dot > bestDot {
			best, bestDot = pl.Normal, dot
		}
	}
	return best
}

func (b Box) ClosestDistance(p r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, b.ClosestPoint(p)))
}

func (b Box) SignedDistance(p r3.Vec) float64 {
	d := b.ClosestDistance(p)
	if b.Bound.Contains(p) {
		return -d
	}
	return d
}

func (b Box) Intersects(ray Ray) bool {
	return b.Bound.Intersects(ray)
}

func (b Box) BoundingBox() BoundingBox { return b.Bound }

func (b Box) IsBounded() bool { return true }
