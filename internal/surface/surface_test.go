package surface

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestSignedDistance(t *testing.T) {
	box := NewBox(r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2})
	tests := []struct {
		name string
		s    Surface
		p    r3.Vec
		want float64
	}{
		{"sphere outside", Sphere{Radius: 1}, r3.Vec{X: 3}, 2},
		{"sphere inside", Sphere{Radius: 1}, r3.Vec{Y: 0.25}, -0.75},
		{"plane above", Plane{Normal: r3.Vec{Y: 1}}, r3.Vec{X: 5, Y: 2}, 2},
		{"box inside", box, r3.Vec{X: 1, Y: 1, Z: 0.5}, -0.5},
		{"box outside", box, r3.Vec{X: 1, Y: 1, Z: 3}, 1},
		{"flipped box", Flipped{Surface: box}, r3.Vec{X: 1, Y: 1, Z: 0.5}, 0.5},
		{"set takes minimum", Set{Sphere{Radius: 1}, Sphere{Center: r3.Vec{X: 4}, Radius: 1}}, r3.Vec{X: 3.5}, -0.5},
		{"implicit", NewImplicit(func(p r3.Vec) float64 { return p.Y - 1 }, box.Bound), r3.Vec{Y: 0.25}, -0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.SignedDistance(tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBoxClosestPointAndNormal(t *testing.T) {
	box := NewBox(r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2})

	p := box.ClosestPoint(r3.Vec{X: 1, Y: 1.5, Z: 1})
	if p != (r3.Vec{X: 1, Y: 2, Z: 1}) {
		t.Errorf("expected top face point, got %v", p)
	}
	if n := box.ClosestNormal(r3.Vec{X: 1, Y: 1.5, Z: 1}); n != (r3.Vec{Y: 1}) {
		t.Errorf("expected +y normal, got %v", n)
	}
	if n := box.ClosestNormal(r3.Vec{X: -1, Y: 1, Z: 1}); n != (r3.Vec{X: -1}) {
		t.Errorf("expected -x normal, got %v", n)
	}
}

func TestIntersects(t *testing.T) {
	ray := Ray{Origin: r3.Vec{X: -5}, Direction: r3.Vec{X: 1}}
	away := Ray{Origin: r3.Vec{X: -5}, Direction: r3.Vec{X: -1}}

	shapes := map[string]Surface{
		"sphere":   Sphere{Radius: 1},
		"box":      NewBox(r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1}),
		"plane":    Plane{Normal: r3.Vec{X: 1}},
		"implicit": NewImplicit(func(p r3.Vec) float64 { return r3.Norm(p) - 1 }, BoundingBox{Lower: r3.Vec{X: -2, Y: -2, Z: -2}, Upper: r3.Vec{X: 2, Y: 2, Z: 2}}),
	}
	for name, s := range shapes {
		if !s.Intersects(ray) {
			t.Errorf("%s: expected ray to hit", name)
		}
		if s.Intersects(away) {
			t.Errorf("%s: expected ray pointing away to miss", name)
		}
	}
}

func TestResolveCollisionReflects(t *testing.T) {
	floor := NewRigidBodyCollider(Plane{Normal: r3.Vec{Y: 1}})
	pos := r3.Vec{X: 0.3, Y: -0.1}
	vel := r3.Vec{X: 1, Y: -2}

	floor.ResolveCollision(0.05, 0.5, &pos, &vel)

	if math.Abs(pos.Y-0.05) > 1e-12 {
		t.Errorf("expected particle pushed to radius above floor, got %v", pos.Y)
	}
	if math.Abs(vel.Y-1) > 1e-12 {
		t.Errorf("expected reflected normal velocity 1, got %v", vel.Y)
	}
	if vel.X != 1 {
		t.Errorf("expected frictionless tangential velocity kept, got %v", vel.X)
	}
}

func TestRigidBodyVelocity(t *testing.T) {
	c := &RigidBodyCollider{
		Shape:           Sphere{Radius: 1},
		LinearVelocity:  r3.Vec{X: 1},
		AngularVelocity: r3.Vec{Z: 2},
	}
	v := c.VelocityAt(r3.Vec{X: 1})
	if v != (r3.Vec{X: 1, Y: 2}) {
		t.Errorf("expected (1,2,0), got %v", v)
	}

	moved := false
	c.OnUpdate = func(*RigidBodyCollider, float64, float64) { moved = true }
	c.Update(0, 0.1)
	if !moved {
		t.Error("expected OnUpdate to be called")
	}
}
