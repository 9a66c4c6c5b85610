package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Collider is a solid obstacle that may move.
type Collider interface {
	Surface() Surface
	VelocityAt(p r3.Vec) r3.Vec
	FrictionCoefficient() float64
	// Update advances the collider to time t + dt.
	Update(t, dt float64)
	// ResolveCollision pushes a particle of the given radius out of the
	// collider and reflects its normal velocity.
	ResolveCollision(radius, restitution float64, position, velocity *r3.Vec)
}

// RigidBodyCollider moves as a rigid body with constant velocities unless
// OnUpdate changes them.
type RigidBodyCollider struct {
	Shape           Surface
	LinearVelocity  r3.Vec
	AngularVelocity r3.Vec
	RotationCenter  r3.Vec
	Friction        float64
	// OnUpdate is called from Update, typically to move Shape.
	OnUpdate func(c *RigidBodyCollider, t, dt float64)
}

// NewRigidBodyCollider returns a static collider around shape.
func NewRigidBodyCollider(shape Surface) *RigidBodyCollider {
	return &RigidBodyCollider{Shape: shape}
}

func (c *RigidBodyCollider) Surface() Surface { return c.Shape }

func (c *RigidBodyCollider) VelocityAt(p r3.Vec) r3.Vec {
	r := r3.Sub(p, c.RotationCenter)
	return r3.Add(c.LinearVelocity, r3.Cross(c.AngularVelocity, r))
}

func (c *RigidBodyCollider) FrictionCoefficient() float64 { return c.Friction }

func (c *RigidBodyCollider) Update(t, dt float64) {
	if c.OnUpdate != nil {
		c.OnUpdate(c, t, dt)
	}
}

func (c *RigidBodyCollider) ResolveCollision(radius, restitution float64, position, velocity *r3.Vec) {
	resolveCollision(c.Shape, c.VelocityAt, c.Friction, radius, restitution, position, velocity)
}

func resolveCollision(s Surface, velocityAt func(r3.Vec) r3.Vec, friction, radius, restitution float64, position, velocity *r3.Vec) {
	point := s.ClosestPoint(*position)
	dist := s.ClosestDistance(*position)
	if !IsInside(s, *position) && dist >= radius {
		return
	}

	normal := s.ClosestNormal(*position)
	target := r3.Add(point, r3.Scale(radius, normal))
	colliderVel := velocityAt(point)

	relVel := r3.Sub(*velocity, colliderVel)
	normalDot := r3.Dot(normal, relVel)
	relVelN := r3.Scale(normalDot, normal)
	relVelT := r3.Sub(relVel, relVelN)

	if normalDot < 0 {
		deltaRelVelN := r3.Scale(-restitution-1, relVelN)
		relVelN = r3.Scale(-restitution, relVelN)

		if tLen := r3.Norm(relVelT); tLen > 0 {
			scale := math.Max(1-friction*r3.Norm(deltaRelVelN)/tLen, 0)
			relVelT = r3.Scale(scale, relVelT)
		}
		*velocity = r3.Add(r3.Add(relVelN, relVelT), colliderVel)
	}
	*position = target
}
