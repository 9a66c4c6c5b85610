package grid

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Size3 is the extent of a 3-D array along each axis.
type Size3 struct {
	X, Y, Z int
}

// Len is the number of elements X*Y*Z.
func (s Size3) Len() int {
	return s.X * s.Y * s.Z
}

// IsZero reports whether any axis is empty.
func (s Size3) IsZero() bool {
	return s.X <= 0 || s.Y <= 0 || s.Z <= 0
}

// Add returns s grown by (dx, dy, dz).
func (s Size3) Add(dx, dy, dz int) Size3 {
	return Size3{X: s.X + dx, Y: s.Y + dy, Z: s.Z + dz}
}

func (s Size3) String() string {
	return fmt.Sprintf("%dx%dx%d", s.X, s.Y, s.Z)
}

// ValidateGeometry checks a resolution and spacing pair.
func ValidateGeometry(resolution Size3, spacing r3.Vec) error {
	if resolution.IsZero() {
		return fmt.Errorf("resolution %s: %w", resolution, dynamo.ErrInvalidResolution)
	}
	if spacing.X <= 0 || spacing.Y <= 0 || spacing.Z <= 0 {
		return fmt.Errorf("spacing %v: %w", spacing, dynamo.ErrInvalidResolution)
	}
	return nil
}

// MinComponent returns the smallest of v's components.
func MinComponent(v r3.Vec) float64 {
	return min(v.X, v.Y, v.Z)
}

// MaxComponent returns the largest of v's components.
func MaxComponent(v r3.Vec) float64 {
	return max(v.X, v.Y, v.Z)
}

// MaxAbsComponent returns the largest absolute component of v.
func MaxAbsComponent(v r3.Vec) float64 {
	return max(abs(v.X), abs(v.Y), abs(v.Z))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// mulElem multiplies two vectors component-wise.
func mulElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}
