// Package surface provides the geometry used for colliders and emitters.
// Every shape answers closest-point, normal, distance and ray queries through
// the Surface interface.
package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Surface is the query set a collider or emitter needs from its geometry.
type Surface interface {
	ClosestPoint(p r3.Vec) r3.Vec
	ClosestNormal(p r3.Vec) r3.Vec
	ClosestDistance(p r3.Vec) float64
	// SignedDistance is negative inside the surface.
	SignedDistance(p r3.Vec) float64
	Intersects(ray Ray) bool
	BoundingBox() BoundingBox
	// IsBounded is false for surfaces such as planes that extend forever.
	IsBounded() bool
}

// IsInside reports whether p lies inside s.
func IsInside(s Surface, p r3.Vec) bool {
	return s.SignedDistance(p) < 0
}

// Ray is a half-line starting at Origin.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// PointAt returns Origin + t*Direction.
func (r Ray) PointAt(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Direction))
}

// BoundingBox is an axis-aligned box.
type BoundingBox struct {
	Lower, Upper r3.Vec
}

// EmptyBoundingBox returns a box that Merge can grow from.
func EmptyBoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		Lower: r3.Vec{X: inf, Y: inf, Z: inf},
		Upper: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

func (b BoundingBox) Width() float64  { return b.Upper.X - b.Lower.X }
func (b BoundingBox) Height() float64 { return b.Upper.Y - b.Lower.Y }
func (b BoundingBox) Depth() float64  { return b.Upper.Z - b.Lower.Z }

// Contains reports whether p is inside or on the box.
func (b BoundingBox) Contains(p r3.Vec) bool {
	return p.X >= b.Lower.X && p.X <= b.Upper.X &&
		p.Y >= b.Lower.Y && p.Y <= b.Upper.Y &&
		p.Z >= b.Lower.Z && p.Z <= b.Upper.Z
}

// Merge returns the smallest box containing b and o.
func (b BoundingBox) Merge(o BoundingBox) BoundingBox {
	return BoundingBox{
		Lower: r3.Vec{X: min(b.Lower.X, o.Lower.X), Y: min(b.Lower.Y, o.Lower.Y), Z: min(b.Lower.Z, o.Lower.Z)},
		Upper: r3.Vec{X: max(b.Upper.X, o.Upper.X), Y: max(b.Upper.Y, o.Upper.Y), Z: max(b.Upper.Z, o.Upper.Z)},
	}
}

// Intersect returns the overlap of b and o. The result may be empty.
func (b BoundingBox) Intersect(o BoundingBox) BoundingBox {
	return BoundingBox{
		Lower: r3.Vec{X: max(b.Lower.X, o.Lower.X), Y: max(b.Lower.Y, o.Lower.Y), Z: max(b.Lower.Z, o.Lower.Z)},
		Upper: r3.Vec{X: min(b.Upper.X, o.Upper.X), Y: min(b.Upper.Y, o.Upper.Y), Z: min(b.Upper.Z, o.Upper.Z)},
	}
}

// IsEmpty reports whether the box has a negative extent on some axis.
func (b BoundingBox) IsEmpty() bool {
	return b.Lower.X > b.Upper.X || b.Lower.Y > b.Upper.Y || b.Lower.Z > b.Upper.Z
}

// Intersects tests the ray against the box with the slab method.
func (b BoundingBox) Intersects(ray Ray) bool {
	tMin, tMax := 0.0, math.Inf(1)
	o := [3]float64{ray.Origin.X, ray.Origin.Y, ray.Origin.Z}
	d := [3]float64{ray.Direction.X, ray.Direction.Y, ray.Direction.Z}
	lo := [3]float64{b.Lower.X, b.Lower.Y, b.Lower.Z}
	hi := [3]float64{b.Upper.X, b.Upper.Y, b.Upper.Z}
	for a := 0; a < 3; a++ {
		if d[a] == 0 {
			if o[a] < lo[a] || o[a] > hi[a] {
				return false
			}
			continue
		}
		inv := 1 / d[a]
		t0 := (lo[a] - o[a]) * inv
		t1 := (hi[a] - o[a]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = max(tMin, t0)
		tMax = min(tMax, t1)
		if tMin > tMax {
			return false
		}
	}
	return true
}
