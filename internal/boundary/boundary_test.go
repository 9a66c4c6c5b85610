package boundary

import (
	"math"
	"testing"

	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

var unit = r3.Vec{X: 1, Y: 1, Z: 1}

func TestDirectionParseAndString(t *testing.T) {
	tests := []struct {
		names []string
		want  Direction
		str   string
	}{
		{[]string{"all"}, DirectionAll, "all"},
		{[]string{"none"}, DirectionNone, "none"},
		{[]string{"left", " Down ", "front"}, DirectionLeft | DirectionDown | DirectionFront, "left|down|front"},
	}
	for _, tt := range tests {
		got, ok := ParseDirections(tt.names)
		if !ok {
			t.Fatalf("expected %v to parse", tt.names)
		}
		if got != tt.want {
			t.Errorf("expected %v, got %v", tt.want, got)
		}
		if got.String() != tt.str {
			t.Errorf("expected %q, got %q", tt.str, got.String())
		}
	}
	if _, ok := ParseDirections([]string{"sideways"}); ok {
		t.Error("expected unknown direction to fail")
	}
}

func TestClosedDomainZeroesWalls(t *testing.T) {
	for _, s := range []Solver{NewFractional(nil), NewBlocked(dynamo.NewContext(2))} {
		vel := grid.NewFaceCenteredGrid(grid.Size3{X: 4, Y: 4, Z: 4}, unit, r3.Vec{})
		vel.Fill(r3.Vec{X: 1, Y: 1, Z: 1})
		s.SetClosedDomainBoundaryFlag(DirectionLeft | DirectionUp)
		s.ConstrainVelocity(vel, 2)

		if vel.U().At(0, 1, 1) != 0 {
			t.Errorf("%T: expected closed left wall", s)
		}
		if vel.U().At(4, 1, 1) != 1 {
			t.Errorf("%T: expected open right wall", s)
		}
		if vel.V().At(1, 4, 1) != 0 {
			t.Errorf("%T: expected closed top wall", s)
		}
		if vel.W().At(1, 1, 0) != 1 {
			t.Errorf("%T: expected open back wall", s)
		}
		if got := s.ColliderSDF().Sample(r3.Vec{X: 1, Y: 1, Z: 1}); got != math.MaxFloat64 {
			t.Errorf("%T: expected open domain SDF, got %v", s, got)
		}
	}
}

func halfSpaceCollider(velocity r3.Vec) *surface.RigidBodyCollider {
	c := surface.NewRigidBodyCollider(surface.NewBox(r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 4, Y: 10, Z: 10}))
	c.LinearVelocity = velocity
	return c
}

func TestFractionalTakesColliderVelocityInside(t *testing.T) {
	res := grid.Size3{X: 8, Y: 8, Z: 8}
	s := NewFractional(dynamo.NewContext(0))
	s.SetClosedDomainBoundaryFlag(DirectionNone)
	s.UpdateCollider(halfSpaceCollider(r3.Vec{X: 0.5}), res, unit, r3.Vec{})

	vel := grid.NewFaceCenteredGrid(res, unit, r3.Vec{})
	vel.Fill(r3.Vec{X: 1})
	s.ConstrainVelocity(vel, 0)

	for _, i := range []int{1, 3} {
		if got := vel.U().At(i, 4, 4); math.Abs(got-0.5) > 1e-12 {
			t.Errorf("u(%d): expected collider velocity 0.5, got %v", i, got)
		}
	}
	for _, i := range []int{4, 6} {
		if got := vel.U().At(i, 4, 4); got != 1 {
			t.Errorf("u(%d): expected fluid velocity 1, got %v", i, got)
		}
	}
	if got := s.ColliderVelocityField().Sample(r3.Vec{}); got != (r3.Vec{X: 0.5}) {
		t.Errorf("expected collider velocity field (0.5,0,0), got %v", got)
	}
}

func TestBlockedForcesColliderVelocityOnInterface(t *testing.T) {
	res := grid.Size3{X: 8, Y: 4, Z: 4}
	collider := surface.NewRigidBodyCollider(surface.NewBox(r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 2, Y: 10, Z: 10}))

	fractional := NewFractional(nil)
	blocked := NewBlocked(nil)
	for _, s := range []Solver{fractional, blocked} {
		s.SetClosedDomainBoundaryFlag(DirectionNone)
		s.UpdateCollider(collider, res, unit, r3.Vec{})
	}

	if !blocked.IsSolid(1, 0, 0) || blocked.IsSolid(2, 0, 0) {
		t.Fatal("expected cells left of x=2 to be solid")
	}

	fv := grid.NewFaceCenteredGrid(res, unit, r3.Vec{})
	fv.Fill(r3.Vec{X: 1})
	bv := fv.Clone()
	fractional.ConstrainVelocity(fv, 1)
	blocked.ConstrainVelocity(bv, 1)

	if got := fv.U().At(2, 1, 1); got != 1 {
		t.Errorf("fractional: expected half-open face to keep 1, got %v", got)
	}
	if got := bv.U().At(2, 1, 1); got != 0 {
		t.Errorf("blocked: expected interface face to take collider velocity 0, got %v", got)
	}
}

func TestProjectAndApplyFriction(t *testing.T) {
	n := r3.Vec{Y: 1}
	got := projectAndApplyFriction(r3.Vec{X: 2, Y: -1}, n, 0)
	if got != (r3.Vec{X: 2}) {
		t.Errorf("expected tangential (2,0,0), got %v", got)
	}
	got = projectAndApplyFriction(r3.Vec{X: 2, Y: -1}, n, 1)
	if math.Abs(got.X-1) > 1e-12 {
		t.Errorf("expected friction to halve tangential speed, got %v", got)
	}
}
